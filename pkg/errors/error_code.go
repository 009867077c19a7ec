package errors

// ErrorCode represents a unique error code for identifying different error types.
//
// Codes are organized by where the error arises in the backtest pipeline:
//   - General errors (1-99)
//   - Validation errors (100-199): config and parameter problems, fatal at construction
//   - Data errors (200-299): malformed bars, gaps, unknown instruments
//   - Strategy errors (300-399): duplicate signals, strategy faults
//   - Rule-gate errors (400-499): rejections and liquidations (non-fatal, recorded)
//   - Ledger/engine errors (500-599)
//   - Orchestrator errors (600-699): parameter-space and walk-forward setup
//   - Writer/report errors (700-799): external serialization
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidConfig        ErrorCode = 100
	ErrCodeInvalidParameter     ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeParameterOutOfBounds ErrorCode = 103
	ErrCodeInvalidVersion       ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105

	// Data errors (200-299)
	ErrCodeMalformedBar      ErrorCode = 200
	ErrCodeDataGap           ErrorCode = 201
	ErrCodeUnknownInstrument ErrorCode = 202
	ErrCodeLoadFailed        ErrorCode = 203

	// Strategy errors (300-399)
	ErrCodeDuplicateSignal ErrorCode = 300
	ErrCodeStrategyFault   ErrorCode = 301
	ErrCodeInvalidSignal   ErrorCode = 302

	// Rule-gate errors (400-499)
	ErrCodeRuleRejection    ErrorCode = 400
	ErrCodeLiquidation      ErrorCode = 401
	ErrCodeInvalidOrder     ErrorCode = 402
	ErrCodeInvalidAssetKind ErrorCode = 403

	// Ledger/engine errors (500-599)
	ErrCodeLedgerInvariant ErrorCode = 500
	ErrCodeEngineNotReady  ErrorCode = 501

	// Orchestrator errors (600-699)
	ErrCodeParamSpaceInvalid  ErrorCode = 600
	ErrCodeWalkForwardInvalid ErrorCode = 601

	// Writer/report errors (700-799)
	ErrCodeWriteFailed ErrorCode = 700
)
