// internal/domain/reminder/errors.go
package reminder

import "fmt"

var ErrInvalidPolicy = fmt.Errorf("invalid reminder policy")
var ErrPolicyNotFound = fmt.Errorf("reminder policy not found")
var ErrUnresolvedExpiry = fmt.Errorf("record expiry cannot be resolved")
var ErrDuplicateRun = fmt.Errorf("reminder already recorded for (record_id, service_type, reminder_number)")
var ErrUnknownServiceType = fmt.Errorf("service type is not registered")

// ConfigurationError reports a policy that cannot be evaluated.
// All records of ServiceType are skipped for the run that hit it.
type ConfigurationError struct {
	ServiceType ServiceType
	Reason      string
	Err         error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for service type %q: %s", e.ServiceType, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newConfigError(st ServiceType, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		ServiceType: st,
		Reason:      fmt.Sprintf(format, args...),
		Err:         ErrInvalidPolicy,
	}
}
