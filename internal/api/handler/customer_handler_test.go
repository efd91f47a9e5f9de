package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"customer-directory/internal/api/handler"
	"customer-directory/internal/api/handler/dto"
	"customer-directory/internal/domain/customer"
	"customer-directory/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDirectoryService struct {
	mock.Mock
}

func (_m *MockDirectoryService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context) []*customer.Customer); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockDirectoryService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *customer.Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockDirectoryService) CreateCustomer(ctx context.Context, input customer.CreateInput) (*customer.Customer, error) {
	ret := _m.Called(ctx, input)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, customer.CreateInput) *customer.Customer); ok {
		r0 = rf(ctx, input)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, customer.CreateInput) error); ok {
		r1 = rf(ctx, input)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockDirectoryService) UpdateCustomer(ctx context.Context, customerID int64, patch customer.Patch) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID, patch)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64, customer.Patch) *customer.Customer); ok {
		r0 = rf(ctx, customerID, patch)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64, customer.Patch) error); ok {
		r1 = rf(ctx, customerID, patch)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockDirectoryService) DeleteCustomer(ctx context.Context, customerID int64) error {
	ret := _m.Called(ctx, customerID)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, int64) error); ok {
		r0 = rf(ctx, customerID)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func strPtr(s string) *string {
	return &s
}

func newTestHandler(t *testing.T) (*handler.CustomerHandler, *MockDirectoryService) {
	t.Helper()
	mockService := new(MockDirectoryService)
	h := handler.NewCustomerHandler(mockService, testLogger)
	return h, mockService
}

// requestWithCustomerID injects the chi route parameter the handler reads.
func requestWithCustomerID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("customerID", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleCustomer(id int64) *customer.Customer {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &customer.Customer{
		ID:        id,
		Name:      "Alice Smith",
		Email:     "alice@example.com",
		Phone:     strPtr("+62-811-555-0101"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func decodeErrorResponse(t *testing.T, body *bytes.Buffer) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestCreateCustomerHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		created := sampleCustomer(1)
		mockService.On("CreateCustomer", mock.Anything, customer.CreateInput{
			Name:  "Alice Smith",
			Email: "alice@example.com",
			Phone: "+62-811-555-0101",
		}).Return(created, nil).Once()

		body := `{"name":"Alice Smith","email":"alice@example.com","phone":"+62-811-555-0101"}`
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.CreateCustomer(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp dto.CustomerResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "1", resp.CustomerID)
		assert.Equal(t, "Alice Smith", resp.Name)
		mockService.AssertExpectations(t)
	})

	t.Run("Error_MalformedJSON", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":`))
		rr := httptest.NewRecorder()

		h.CreateCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error_UnknownField", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		body := `{"name":"Alice","email":"alice@example.com","role":"admin"}`
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.CreateCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidEmail", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		body := `{"name":"Alice","email":"not-an-email"}`
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.CreateCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeErrorResponse(t, rr.Body)
		assert.Equal(t, "email", resp.Error.Field)
		assert.Equal(t, "email must be a valid email address", resp.Error.Message)
		mockService.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error_EmailConflict", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("CreateCustomer", mock.Anything, mock.Anything).Return(nil, apperrors.ErrConflict).Once()

		body := `{"name":"Alice","email":"alice@example.com"}`
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.CreateCustomer(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeErrorResponse(t, rr.Body)
		assert.Equal(t, "Email is already in use.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("CreateCustomer", mock.Anything, mock.Anything).Return(nil, apperrors.ErrStoreUnavailable).Once()

		body := `{"name":"Alice","email":"alice@example.com"}`
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.CreateCustomer(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		resp := decodeErrorResponse(t, rr.Body)
		assert.Equal(t, "Backing store is unavailable.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})
}

func TestGetCustomerHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("GetCustomer", mock.Anything, int64(42)).Return(sampleCustomer(42), nil).Once()

		req := requestWithCustomerID(httptest.NewRequest(http.MethodGet, "/customers/42", nil), "42")
		rr := httptest.NewRecorder()

		h.GetCustomer(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp dto.CustomerResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "42", resp.CustomerID)
		assert.Equal(t, "alice@example.com", resp.Email)
		mockService.AssertExpectations(t)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		h, mockService := newTestHandler(t)

		req := requestWithCustomerID(httptest.NewRequest(http.MethodGet, "/customers/abc", nil), "abc")
		rr := httptest.NewRecorder()

		h.GetCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error_NonPositiveID", func(t *testing.T) {
		h, mockService := newTestHandler(t)

		req := requestWithCustomerID(httptest.NewRequest(http.MethodGet, "/customers/0", nil), "0")
		rr := httptest.NewRecorder()

		h.GetCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("GetCustomer", mock.Anything, int64(42)).Return(nil, apperrors.ErrNotFound).Once()

		req := requestWithCustomerID(httptest.NewRequest(http.MethodGet, "/customers/42", nil), "42")
		rr := httptest.NewRecorder()

		h.GetCustomer(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeErrorResponse(t, rr.Body)
		assert.Equal(t, "Customer not found.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})
}

func TestListCustomersHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		customers := []*customer.Customer{sampleCustomer(1), sampleCustomer(2)}
		mockService.On("ListCustomers", mock.Anything).Return(customers, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		rr := httptest.NewRecorder()

		h.ListCustomers(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp []dto.CustomerResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		mockService.AssertExpectations(t)
	})

	t.Run("Success_Empty", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("ListCustomers", mock.Anything).Return([]*customer.Customer{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		rr := httptest.NewRecorder()

		h.ListCustomers(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("ListCustomers", mock.Anything).Return(nil, apperrors.ErrStoreUnavailable).Once()

		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		rr := httptest.NewRecorder()

		h.ListCustomers(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestUpdateCustomerHandler(t *testing.T) {
	t.Run("Success_SparsePatch", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		updated := sampleCustomer(42)
		updated.Name = "Alice Jones"
		mockService.On("UpdateCustomer", mock.Anything, int64(42), customer.Patch{Name: strPtr("Alice Jones")}).
			Return(updated, nil).Once()

		body := `{"name":"Alice Jones"}`
		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/42", bytes.NewBufferString(body)), "42")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp dto.CustomerResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Alice Jones", resp.Name)
		mockService.AssertExpectations(t)
	})

	t.Run("Success_PhoneClear", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		updated := sampleCustomer(42)
		updated.Phone = nil
		mockService.On("UpdateCustomer", mock.Anything, int64(42), customer.Patch{Phone: strPtr("")}).
			Return(updated, nil).Once()

		body := `{"phone":""}`
		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/42", bytes.NewBufferString(body)), "42")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "phone")
		mockService.AssertExpectations(t)
	})

	t.Run("Success_ExplicitNullPhoneClears", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		updated := sampleCustomer(42)
		updated.Phone = nil
		mockService.On("UpdateCustomer", mock.Anything, int64(42), customer.Patch{Phone: strPtr("")}).
			Return(updated, nil).Once()

		body := `{"phone":null}`
		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/42", bytes.NewBufferString(body)), "42")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "phone")
		mockService.AssertExpectations(t)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		h, mockService := newTestHandler(t)

		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/-1", bytes.NewBufferString(`{}`)), "-1")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_EmptyNameInPatch", func(t *testing.T) {
		h, mockService := newTestHandler(t)

		body := `{"name":"  "}`
		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/42", bytes.NewBufferString(body)), "42")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("UpdateCustomer", mock.Anything, int64(42), mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

		body := `{"name":"Bob"}`
		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/42", bytes.NewBufferString(body)), "42")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Error_EmailConflict", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("UpdateCustomer", mock.Anything, int64(42), mock.Anything).Return(nil, apperrors.ErrConflict).Once()

		body := `{"email":"taken@example.com"}`
		req := requestWithCustomerID(httptest.NewRequest(http.MethodPatch, "/customers/42", bytes.NewBufferString(body)), "42")
		rr := httptest.NewRecorder()

		h.UpdateCustomer(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestDeleteCustomerHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("DeleteCustomer", mock.Anything, int64(42)).Return(nil).Once()

		req := requestWithCustomerID(httptest.NewRequest(http.MethodDelete, "/customers/42", nil), "42")
		rr := httptest.NewRecorder()

		h.DeleteCustomer(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		h, mockService := newTestHandler(t)

		req := requestWithCustomerID(httptest.NewRequest(http.MethodDelete, "/customers/abc", nil), "abc")
		rr := httptest.NewRecorder()

		h.DeleteCustomer(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "DeleteCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		h, mockService := newTestHandler(t)
		mockService.On("DeleteCustomer", mock.Anything, int64(42)).Return(apperrors.ErrNotFound).Once()

		req := requestWithCustomerID(httptest.NewRequest(http.MethodDelete, "/customers/42", nil), "42")
		rr := httptest.NewRecorder()

		h.DeleteCustomer(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeErrorResponse(t, rr.Body)
		assert.Equal(t, "Customer not found.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})
}
