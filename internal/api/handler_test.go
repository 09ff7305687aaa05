package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/samandr77/microservices/backoffice/internal/api"
	"github.com/samandr77/microservices/backoffice/internal/entity"
	"github.com/samandr77/microservices/backoffice/internal/mocks"
)

const testToken = "dev"

type testAPI struct {
	server   *httptest.Server
	userID   uuid.UUID
	auth     *mocks.MockAuthService
	invoices *mocks.MockInvoiceService
	users    *mocks.MockUserService
	alerts   *mocks.MockAlertSender
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	ctrl := gomock.NewController(t)

	a := &testAPI{
		userID:   uuid.Must(uuid.NewV4()),
		auth:     mocks.NewMockAuthService(ctrl),
		invoices: mocks.NewMockInvoiceService(ctrl),
		users:    mocks.NewMockUserService(ctrl),
		alerts:   mocks.NewMockAlertSender(ctrl),
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})

	router := api.NewRouter(
		api.NewHandler(a.invoices, a.users, a.alerts),
		api.NewMiddleware(a.auth),
		metrics,
	)

	a.server = httptest.NewServer(router)
	t.Cleanup(a.server.Close)

	return a
}

func (a *testAPI) expectAuth() {
	a.auth.EXPECT().ValidateToken(gomock.Any(), testToken).Return(a.userID, nil)
}

func (a *testAPI) do(t *testing.T, method, path, body string, authorized bool) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, a.server.URL+path, reader)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")

	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

const validInvoiceBody = `{
	"firstName": "John",
	"lastName": "Smith",
	"email": "john.smith@example.com",
	"amount": 30,
	"productCode": "PRD001",
	"billNo": "ABC1234567890123"
}`

func savedInvoice(userID uuid.UUID, approved bool) entity.Invoice {
	return entity.Invoice{
		ID:          uuid.Must(uuid.NewV4()),
		FirstName:   "John",
		LastName:    "Smith",
		Email:       "john.smith@example.com",
		Amount:      decimal.NewFromInt(30),
		ProductCode: "PRD001",
		BillNo:      "ABC1234567890123",
		IsApproved:  approved,
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestHandler_CreateInvoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		successful bool
		message    string
		wantCode   int
	}{
		{"approved", true, "Invoice approved and saved successfully.", http.StatusCreated},
		{"rejected", false, "Given bill no already exists.", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := newTestAPI(t)
			a.expectAuth()

			saved := savedInvoice(a.userID, tt.successful)

			a.invoices.EXPECT().CreateInvoice(gomock.Any(), gomock.Any(), a.userID).DoAndReturn(
				func(_ context.Context, inv entity.Invoice, _ uuid.UUID) (entity.InvoiceCreationResult, error) {
					require.Equal(t, "ABC1234567890123", inv.BillNo)
					require.True(t, decimal.NewFromInt(30).Equal(inv.Amount))

					return entity.InvoiceCreationResult{
						Successful: tt.successful,
						Message:    tt.message,
						Invoice:    saved,
					}, nil
				})

			resp, body := a.do(t, http.MethodPost, "/api/invoices", validInvoiceBody, true)
			require.Equal(t, tt.wantCode, resp.StatusCode, string(body))
			require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

			var got api.InvoiceCreationResponse

			require.NoError(t, json.Unmarshal(body, &got))
			require.Equal(t, tt.successful, got.Success)
			require.Equal(t, tt.message, got.Message)
			require.Equal(t, saved.ID, got.SavedInvoice.ID)
			require.Equal(t, tt.successful, got.SavedInvoice.IsApproved)
			require.Equal(t, a.userID, got.SavedInvoice.CreatedBy)
		})
	}
}

func TestHandler_CreateInvoice_BadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"amount":`},
		{"bad bill no", strings.Replace(validInvoiceBody, "ABC1234567890123", "AB1234567890123", 1)},
		{"bad product code", strings.Replace(validInvoiceBody, "PRD001", "PRD 01", 1)},
		{"zero amount", strings.Replace(validInvoiceBody, `"amount": 30`, `"amount": 0`, 1)},
		{"too precise amount", strings.Replace(validInvoiceBody, `"amount": 30`, `"amount": 30.001`, 1)},
		{"short first name", strings.Replace(validInvoiceBody, `"John"`, `"J"`, 1)},
		{"bad email", strings.Replace(validInvoiceBody, "john.smith@example.com", "not-an-email", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := newTestAPI(t)
			a.expectAuth()

			resp, body := a.do(t, http.MethodPost, "/api/invoices", tt.body, true)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
		})
	}
}

func TestHandler_CreateInvoice_Errors(t *testing.T) {
	t.Parallel()

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		a := newTestAPI(t)
		a.expectAuth()

		a.invoices.EXPECT().CreateInvoice(gomock.Any(), gomock.Any(), a.userID).
			Return(entity.InvoiceCreationResult{}, errors.New("connection refused"))

		resp, _ := a.do(t, http.MethodPost, "/api/invoices", validInvoiceBody, true)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("no token", func(t *testing.T) {
		t.Parallel()

		a := newTestAPI(t)

		resp, body := a.do(t, http.MethodPost, "/api/invoices", validInvoiceBody, false)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var got api.ErrorResponse

		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, "Authorization token is not provided or invalid", got.Message)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		a := newTestAPI(t)
		a.auth.EXPECT().ValidateToken(gomock.Any(), testToken).
			Return(uuid.Nil, fmt.Errorf("parse: %w", entity.ErrTokenExpired))

		resp, body := a.do(t, http.MethodPost, "/api/invoices", validInvoiceBody, true)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var got api.ErrorResponse

		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, "Authorization token is expired", got.Message)
	})
}

func TestHandler_Invoices(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.expectAuth()

	expectedFilter := entity.InvoiceFilter{IsApproved: lo.ToPtr(true), Page: 1, PageSize: 2}

	a.invoices.EXPECT().Invoices(gomock.Any(), a.userID, expectedFilter).Return(entity.Page[entity.Invoice]{
		Content:       []entity.Invoice{savedInvoice(a.userID, true)},
		PageNumber:    1,
		PageSize:      2,
		TotalElements: 3,
	}, nil)

	resp, body := a.do(t, http.MethodGet, "/api/invoices?isApproved=true&page=1&pageSize=2", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got api.InvoicePageResponse

	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.Content, 1)
	require.Equal(t, api.Pageable{PageNumber: 1, PageSize: 2, TotalElements: 3, TotalPages: 2}, got.Pageable)
}

func TestHandler_Invoices_Defaults(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.expectAuth()

	a.invoices.EXPECT().Invoices(gomock.Any(), a.userID, entity.InvoiceFilter{Page: 0, PageSize: 10}).
		Return(entity.Page[entity.Invoice]{PageSize: 10}, nil)

	resp, body := a.do(t, http.MethodGet, "/api/invoices", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.JSONEq(t,
		`{"content":[],"pageable":{"pageNumber":0,"pageSize":10,"totalElements":0,"totalPages":0}}`,
		string(body),
	)
}

func TestHandler_Invoices_BadQuery(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.expectAuth()

	resp, _ := a.do(t, http.MethodGet, "/api/invoices?isApproved=maybe", "", true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Invoice(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	inv := savedInvoice(a.userID, true)

	a.auth.EXPECT().ValidateToken(gomock.Any(), testToken).Return(a.userID, nil).Times(3)
	a.invoices.EXPECT().Invoice(gomock.Any(), inv.ID).Return(inv, nil)

	resp, body := a.do(t, http.MethodGet, "/api/invoices/"+inv.ID.String(), "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.InvoiceResponse

	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, inv.ID, got.ID)
	require.True(t, inv.Amount.Equal(got.Amount))

	missing := uuid.Must(uuid.NewV4())
	a.invoices.EXPECT().Invoice(gomock.Any(), missing).Return(entity.Invoice{}, fmt.Errorf("get: %w", entity.ErrNotFound))

	resp, body = a.do(t, http.MethodGet, "/api/invoices/"+missing.String(), "", true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp api.ErrorResponse

	require.NoError(t, json.Unmarshal(body, &errResp))
	require.Equal(t, "Invoice with given ID doesn't exists.", errResp.Message)

	resp, _ = a.do(t, http.MethodGet, "/api/invoices/not-a-uuid", "", true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_DeleteInvoice(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.expectAuth()

	id := uuid.Must(uuid.NewV4())
	a.invoices.EXPECT().DeleteInvoice(gomock.Any(), id).Return(nil)

	resp, _ := a.do(t, http.MethodDelete, "/api/invoices/"+id.String(), "", true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	resp, body := a.do(t, http.MethodGet, "/api/health", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK\n", string(body))

	resp, body = a.do(t, http.MethodGet, "/api/metrics", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "# metrics\n", string(body))
}
