package domain

import "errors"

// Rejection reasons surfaced through ExecutionResult. These are contract
// values: the control layer matches on them, so they never change casually.
const (
	ReasonDisabled         = "disabled"
	ReasonNoKeypair        = "no keypair"
	ReasonNotRegistered    = "not registered"
	ReasonBelowMinimum     = "below minimum"
	ReasonNoBalanceManager = "no balance manager"
	ReasonCoinTypeUnknown  = "coin type unknown"
	ReasonInFlight         = "in flight"
	ReasonTxFailed         = "transaction failed"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "connect", "read", "submit")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NotFoundError marks a lookup that referenced an unknown entity. Callers
// translate it to a 404-equivalent; it is never fatal to the event loop.
type NotFoundError struct {
	Kind string // "pool", "vault", "order"
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

var (
	// ErrVaultTaken is returned when registering a pool against a vault that
	// already backs a different pool. The registry enforces 1:1 pool-vault.
	ErrVaultTaken = errors.New("vault already bound to another pool")

	// ErrInvalidOrder is returned when a cache entry is missing required fields.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidKey is returned when the signing credential cannot be decoded.
	ErrInvalidKey = errors.New("invalid private key")

	// ErrConnectionFailed is returned when the event subscription cannot be
	// established. Usually retriable.
	ErrConnectionFailed = errors.New("connection failed")
)
