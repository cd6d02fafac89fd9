package deployment

import (
	"sort"
	"sync"

	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

// ErrorsHolder collects errors and warnings per deployment so that a failing
// deployment does not stop the processing of the remaining ones.
type ErrorsHolder struct {
	errors   map[types.DeploymentRef][]error
	warnings map[types.DeploymentRef][]error
	mutex    sync.Mutex
}

func NewErrorsHolder() *ErrorsHolder {
	return &ErrorsHolder{
		errors:   map[types.DeploymentRef][]error{},
		warnings: map[types.DeploymentRef][]error{},
	}
}

func (eh *ErrorsHolder) AddWarning(ref types.DeploymentRef, warning error) {
	log.Warningf("%s: %v", ref, warning)
	eh.mutex.Lock()
	defer eh.mutex.Unlock()
	eh.warnings[ref] = append(eh.warnings[ref], warning)
}

func (eh *ErrorsHolder) AddError(ref types.DeploymentRef, err error) {
	log.Errorf("%s: %v", ref, err)
	eh.mutex.Lock()
	defer eh.mutex.Unlock()
	eh.errors[ref] = append(eh.errors[ref], err)
}

func sortedRefs(m map[types.DeploymentRef][]error) []types.DeploymentRef {
	refs := make([]types.DeploymentRef, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}

func (eh *ErrorsHolder) FailedDeployments() []types.DeploymentRef {
	eh.mutex.Lock()
	defer eh.mutex.Unlock()
	return sortedRefs(eh.errors)
}

func (eh *ErrorsHolder) GetErrorsList() []error {
	eh.mutex.Lock()
	defer eh.mutex.Unlock()
	var ret []error
	for _, ref := range sortedRefs(eh.errors) {
		ret = append(ret, eh.errors[ref]...)
	}
	return ret
}

func (eh *ErrorsHolder) GetWarningsList() []error {
	eh.mutex.Lock()
	defer eh.mutex.Unlock()
	var ret []error
	for _, ref := range sortedRefs(eh.warnings) {
		ret = append(ret, eh.warnings[ref]...)
	}
	return ret
}

// GetMultiError returns nil if no deployment failed.
func (eh *ErrorsHolder) GetMultiError() error {
	l := eh.GetErrorsList()
	return multierror.Append(nil, l...).ErrorOrNil()
}
