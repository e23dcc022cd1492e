package errors

import "errors"

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrUsernameExists           = errors.New("username already exists")
	ErrPhoneExists              = errors.New("phone already exists")
	ErrEmailExists              = errors.New("email already exists")
	ErrNilUser                  = errors.New("user is nil")
	ErrUserDisabled             = errors.New("user is disabled")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInvalidPassword          = errors.New("current password is incorrect")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInvalidInput             = errors.New("invalid input")
	ErrInsufficientCredits      = errors.New("insufficient credits")
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrNilTransaction           = errors.New("transaction is nil")
	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrRequestAlreadyProcessed  = errors.New("request already processed")
	ErrOrderNotFound            = errors.New("order not found")
	ErrNilOrder                 = errors.New("order is nil")
	ErrOrderNotPending          = errors.New("order is not pending")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrInvalidNotifySecret      = errors.New("invalid notification secret")
	ErrHistoryNotFound          = errors.New("history item not found")
	ErrNilHistoryItem           = errors.New("history item is nil")
	ErrTransformationNotFound   = errors.New("transformation not found")
	ErrPromptRequired           = errors.New("prompt is required")
	ErrImageRequired            = errors.New("image is required")
	ErrContentBlocked           = errors.New("content blocked by safety filters")
	ErrGenerationFailed         = errors.New("generation failed")
	ErrJobNotFound              = errors.New("video job not found")
	ErrInvalidCode              = errors.New("verification code is invalid or expired")
	ErrCodeRateLimited          = errors.New("verification code requested too often")
	ErrInternal                 = errors.New("internal server error")
)
