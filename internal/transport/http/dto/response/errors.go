package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrSignInRequired = ErrorResponse{
		Status:  "error",
		Error:   "authentication_required",
		Details: "You must be signed in",
	}

	ErrInvalidIdentity = ErrorResponse{
		Status:  "error",
		Error:   "invalid_token",
		Details: "Identity token is invalid or expired",
	}

	ErrNotOwner = ErrorResponse{
		Status:  "error",
		Error:   "forbidden",
		Details: "Only the owner can change this base",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)
