package apperr

import "github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/zerror"

const (
	ValidationErrorCode        = "VALIDATION_FAILED"
	ProductNotFoundCode        = "PRODUCT_NOT_FOUND"
	CustomerNotFoundCode       = "CUSTOMER_NOT_FOUND"
	SaleNotFoundCode           = "SALE_NOT_FOUND"
	UserNotFoundCode           = "USER_NOT_FOUND"
	EventNotFoundCode          = "CALENDAR_EVENT_NOT_FOUND"
	DuplicateBarcodeCode       = "DUPLICATE_BARCODE"
	DuplicateUsernameCode      = "DUPLICATE_USERNAME"
	InsufficientStockCode      = "INSUFFICIENT_STOCK"
	ProductReferencedCode      = "PRODUCT_REFERENCED_BY_SALES"
	InvalidCredentialsCode     = "INVALID_CREDENTIALS"
	PartialCommitCode          = "PARTIAL_COMMIT"
	TransientStoreCode         = "TRANSIENT_STORE_ERROR"
	EmptySaleCode              = "EMPTY_SALE"
	CustomerDeletedCode        = "CUSTOMER_DELETED"
	AmountMismatchCode         = "AMOUNT_MISMATCH"
	InsufficientPrivilegesCode = "INSUFFICIENT_PRIVILEGES"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductNotFoundErr  = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	CustomerNotFoundErr = zerror.NewNotFound(CustomerNotFoundCode, "customer not found")
	SaleNotFoundErr     = zerror.NewNotFound(SaleNotFoundCode, "sale not found")
	UserNotFoundErr     = zerror.NewNotFound(UserNotFoundCode, "user not found")
	EventNotFoundErr    = zerror.NewNotFound(EventNotFoundCode, "calendar event not found")

	DuplicateBarcodeErr  = zerror.NewConflict(DuplicateBarcodeCode, "a product with this barcode already exists")
	DuplicateUsernameErr = zerror.NewConflict(DuplicateUsernameCode, "this username is already taken")
	ProductReferencedErr = zerror.NewConflict(ProductReferencedCode, "product is referenced by sales and cannot be deleted")

	// InsufficientStockErr is returned when a decrement would take a product's
	// quantity below zero. The whole sale is rejected; stock never goes negative.
	InsufficientStockErr = zerror.NewUnprocessableEntity(InsufficientStockCode, "insufficient stock for requested quantity")

	EmptySaleErr        = zerror.NewValidationFailed(EmptySaleCode, "sale must contain at least one line item")
	CustomerDeletedErr  = zerror.NewUnprocessableEntity(CustomerDeletedCode, "customer has been deleted")
	AmountMismatchErr   = zerror.NewValidationFailed(AmountMismatchCode, "final amount does not match line item totals minus discount")
	InvalidCredentials  = zerror.NewUnauthorized(InvalidCredentialsCode, "invalid username or password")
	InsufficientPrivErr = zerror.NewForbidden(InsufficientPrivilegesCode, "insufficient privileges")

	// PartialCommitErr signals that a sale record exists but one of its
	// downstream effects failed. It always carries the sale id so an operator
	// or the reconciler can repair it.
	PartialCommitErr = zerror.NewInternalServerError(PartialCommitCode, "sale recorded but downstream effects incomplete")

	TransientStoreErr = zerror.NewServiceUnavailable(TransientStoreCode, "temporary store failure, retry later")
)
