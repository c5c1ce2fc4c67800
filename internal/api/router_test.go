package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/medrec/medrec/internal/app"
	iauth "github.com/medrec/medrec/internal/auth"
	"github.com/medrec/medrec/internal/database"
	"github.com/medrec/medrec/internal/database/testutil"
	"github.com/medrec/medrec/internal/gateway"
	"github.com/medrec/medrec/internal/services"
	"github.com/medrec/medrec/pkg/mail"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) wait(t *testing.T, n int) []mail.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.sent) >= n {
			out := make([]mail.Message, len(m.sent))
			copy(out, m.sent)
			m.mu.Unlock()
			return out
		}
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d mails", n)
	return nil
}

type stubGateway struct {
	counter int
	sig     string
}

func (g *stubGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*gateway.Order, error) {
	g.counter++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", g.counter),
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *stubGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == g.sig
}

type routerFixture struct {
	engine *gin.Engine
	mailer *captureMailer
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	require.NoError(t, database.SeedData(db, database.SeedOptions{
		AdminEmail:    "admin@medrec.local",
		AdminPassword: "admin-secret",
	}))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test", Issuer: "medrec"})
	require.NoError(t, err)

	authSvc, err := iauth.NewAuthService(db, jwtSvc)
	require.NoError(t, err)

	tokens, err := services.NewTokenService(db)
	require.NoError(t, err)

	mailer := &captureMailer{}
	registration, err := services.NewRegistrationService(db, tokens, mailer, "http://localhost:8000")
	require.NoError(t, err)

	appointments, err := services.NewAppointmentService(db)
	require.NoError(t, err)

	settlements, err := services.NewSettlementService(db, &stubGateway{sig: "valid"})
	require.NoError(t, err)

	directory, err := services.NewDirectoryService(db)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Server.CORS = []string{"http://localhost:3000"}

	engine, err := NewRouter(jwtSvc, cfg, Services{
		Auth:         authSvc,
		Registration: registration,
		Appointments: appointments,
		Settlements:  settlements,
		Directory:    directory,
	})
	require.NoError(t, err)

	return &routerFixture{engine: engine, mailer: mailer}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Data
}

func (f *routerFixture) login(t *testing.T, email, password, role string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": password,
		"role":     role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	tokens, ok := data["tokens"].(map[string]any)
	require.True(t, ok)
	access, ok := tokens["access_token"].(string)
	require.True(t, ok)
	return access
}

func (f *routerFixture) registerAndVerify(t *testing.T, email, password string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/register", "", gin.H{
		"full_name":      "Asha Rao",
		"email":          email,
		"password":       password,
		"accepted_terms": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	msgs := f.mailer.wait(t, 1)
	body := msgs[len(msgs)-1].Body
	idx := strings.Index(body, "token=")
	require.NotEqual(t, -1, idx)
	token := body[idx+len("token="):]
	if end := strings.IndexAny(token, `"<&`); end != -1 {
		token = token[:end]
	}

	w = f.do(t, http.MethodGet, "/register/verifyEmail?token="+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegistrationLoginAndBookingFlow(t *testing.T) {
	f := newRouterFixture(t)

	// Login before verification is rejected.
	f.do(t, http.MethodPost, "/api/register", "", gin.H{
		"full_name":      "Ravi Kumar",
		"email":          "ravi@example.com",
		"password":       "sufficiently-long",
		"accepted_terms": true,
	})
	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ravi@example.com",
		"password": "sufficiently-long",
		"role":     "patient",
	})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	f.registerAndVerify(t, "asha@example.com", "sufficiently-long")
	patientToken := f.login(t, "asha@example.com", "sufficiently-long", "patient")

	// Admin creates a doctor for the directory.
	adminToken := f.login(t, "admin@medrec.local", "admin-secret", "admin")
	w = f.do(t, http.MethodPost, "/api/admin/doctors", adminToken, gin.H{
		"full_name": "Dr. Meera Iyer",
		"specialty": "Cardiology",
		"email":     "meera@example.com",
		"password":  "doctor-secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doctorID, _ := decodeData(t, w)["id"].(string)
	require.NotEmpty(t, doctorID)

	// Patient books.
	w = f.do(t, http.MethodPost, "/api/appointments", patientToken, gin.H{
		"full_name": "Asha Rao",
		"date":      "2025-09-01",
		"doctor_id": doctorID,
		"disease":   "arrhythmia",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appointmentID, _ := decodeData(t, w)["id"].(string)
	require.NotEmpty(t, appointmentID)

	// Doctor resolves their own appointment.
	doctorToken := f.login(t, "meera@example.com", "doctor-secret", "doctor")
	w = f.do(t, http.MethodPost, "/api/doctor/appointments/"+appointmentID+"/resolve", doctorToken, gin.H{
		"status":   "treated",
		"med_disc": "beta blockers",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Patient cannot reschedule a resolved appointment.
	w = f.do(t, http.MethodPut, "/api/appointments/"+appointmentID, patientToken, gin.H{
		"full_name": "Asha Rao",
		"date":      "2025-09-10",
		"doctor_id": doctorID,
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())
}

func TestRoleBoundaries(t *testing.T) {
	f := newRouterFixture(t)

	f.registerAndVerify(t, "asha@example.com", "sufficiently-long")
	patientToken := f.login(t, "asha@example.com", "sufficiently-long", "patient")

	// Patients cannot reach admin or doctor surfaces.
	w := f.do(t, http.MethodGet, "/api/admin/dashboard", patientToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/doctor/dashboard", patientToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Anonymous callers cannot reach protected routes at all.
	w = f.do(t, http.MethodGet, "/api/appointments", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentFlowOverHTTP(t *testing.T) {
	f := newRouterFixture(t)

	f.registerAndVerify(t, "asha@example.com", "sufficiently-long")
	patientToken := f.login(t, "asha@example.com", "sufficiently-long", "patient")

	w := f.do(t, http.MethodPost, "/api/payments/orders", patientToken, gin.H{"amount": 500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	order, _ := data["order"].(map[string]any)
	orderID, _ := order["id"].(string)
	require.NotEmpty(t, orderID)

	// Forged signature is rejected.
	w = f.do(t, http.MethodPost, "/api/payments/reconcile", patientToken, gin.H{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  "forged",
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())

	// The failed attempt is visible in the patient's history.
	w = f.do(t, http.MethodGet, "/api/payments", patientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "failed")
}

func TestExpiredVerificationLinkOffersResend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	now := time.Now()
	clock := &now

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test", Issuer: "medrec"})
	require.NoError(t, err)
	authSvc, err := iauth.NewAuthService(db, jwtSvc)
	require.NoError(t, err)

	tokens, err := services.NewTokenService(db,
		services.WithTokenClock(func() time.Time { return *clock }),
	)
	require.NoError(t, err)

	mailer := &captureMailer{}
	registration, err := services.NewRegistrationService(db, tokens, mailer, "http://localhost:8000")
	require.NoError(t, err)
	appointments, err := services.NewAppointmentService(db)
	require.NoError(t, err)
	settlements, err := services.NewSettlementService(db, &stubGateway{})
	require.NoError(t, err)
	directory, err := services.NewDirectoryService(db)
	require.NoError(t, err)

	cfg := &app.Config{}
	engine, err := NewRouter(jwtSvc, cfg, Services{
		Auth:         authSvc,
		Registration: registration,
		Appointments: appointments,
		Settlements:  settlements,
		Directory:    directory,
	})
	require.NoError(t, err)

	f := &routerFixture{engine: engine, mailer: mailer}
	f.do(t, http.MethodPost, "/api/register", "", gin.H{
		"full_name":      "Asha Rao",
		"email":          "asha@example.com",
		"password":       "sufficiently-long",
		"accepted_terms": true,
	})

	msgs := mailer.wait(t, 1)
	idx := strings.Index(msgs[0].Body, "token=")
	require.NotEqual(t, -1, idx)
	token := msgs[0].Body[idx+len("token="):]
	if end := strings.IndexAny(token, `"<&`); end != -1 {
		token = token[:end]
	}

	*clock = now.Add(11 * time.Minute)

	w := f.do(t, http.MethodGet, "/register/verifyEmail?token="+token, "", nil)
	require.Equal(t, http.StatusGone, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "/register/resend-verification-token?token=")
}
