package dto

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"customer-directory/internal/domain/customer"
	"customer-directory/internal/pkg/apperrors"
)

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (r *CreateCustomerRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return apperrors.NewValidationError("name", "name cannot be empty")
	}
	if len(name) > customer.MaxNameLength {
		return apperrors.NewValidationError("name", fmt.Sprintf("name cannot exceed %d characters", customer.MaxNameLength))
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Phone)) > customer.MaxPhoneLength {
		return apperrors.NewValidationError("phone", fmt.Sprintf("phone cannot exceed %d characters", customer.MaxPhoneLength))
	}
	return nil
}

func (r *CreateCustomerRequest) ToInput() customer.CreateInput {
	return customer.CreateInput{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	}
}

// UpdateCustomerRequest is a sparse patch: absent fields are left
// untouched, a present empty or explicit null phone clears the stored
// value.
type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// UnmarshalJSON keeps an explicit `"phone": null` distinguishable from an
// absent phone: plain decoding collapses both into a nil pointer, but only
// the explicit null means "clear". It is mapped to the present-but-empty
// marker the patch uses for clearing.
func (r *UpdateCustomerRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  *string         `json:"name"`
		Email *string         `json:"email"`
		Phone json.RawMessage `json:"phone"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Name = raw.Name
	r.Email = raw.Email
	r.Phone = nil

	if len(raw.Phone) == 0 {
		return nil
	}
	if string(raw.Phone) == "null" {
		empty := ""
		r.Phone = &empty
		return nil
	}
	var phone string
	if err := json.Unmarshal(raw.Phone, &phone); err != nil {
		return err
	}
	r.Phone = &phone
	return nil
}

func (r *UpdateCustomerRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return apperrors.NewValidationError("name", "name cannot be empty")
		}
		if len(name) > customer.MaxNameLength {
			return apperrors.NewValidationError("name", fmt.Sprintf("name cannot exceed %d characters", customer.MaxNameLength))
		}
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Phone != nil && len(strings.TrimSpace(*r.Phone)) > customer.MaxPhoneLength {
		return apperrors.NewValidationError("phone", fmt.Sprintf("phone cannot exceed %d characters", customer.MaxPhoneLength))
	}
	return nil
}

func (r *UpdateCustomerRequest) ToPatch() customer.Patch {
	return customer.Patch{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	}
}

func validateEmail(raw string) error {
	email := strings.TrimSpace(raw)
	if email == "" {
		return apperrors.NewValidationError("email", "email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email", "email must be a valid email address")
	}
	return nil
}

type TokenRequest struct {
	Username string `json:"username"`
}

type CustomerResponse struct {
	CustomerID string    `json:"customerId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {

		return CustomerResponse{}
	}

	return CustomerResponse{
		CustomerID: strconv.FormatInt(cust.ID, 10),
		Name:       cust.Name,
		Email:      cust.Email,
		Phone:      cust.Phone,
		CreatedAt:  cust.CreatedAt,
		UpdatedAt:  cust.UpdatedAt,
	}
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
