package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go-foodshare/controllers"
	"go-foodshare/models"
	"go-foodshare/notify"
	"go-foodshare/payment"
	"go-foodshare/storage"
	"go-foodshare/store"
	"go-foodshare/utils"
	"go-foodshare/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayment struct {
	mu       sync.Mutex
	sessions []payment.Session
	receipts map[string]payment.Receipt
}

func (f *fakePayment) CreateSession(ctx context.Context, s payment.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	return "https://pay.example/" + s.OrderID, nil
}

func (f *fakePayment) Verify(ctx context.Context, orderID string) (payment.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[orderID]
	if !ok {
		return payment.Receipt{}, payment.ErrUnverified
	}
	return r, nil
}

type harness struct {
	t       *testing.T
	store   *store.MemoryStore
	mailer  *utils.LogMailer
	queue   *notify.Queue
	tokens  *utils.TokenManager
	pay     *fakePayment
	handler http.Handler
}

func newHarness(t *testing.T, verifyPayments bool) *harness {
	t.Helper()
	s := store.NewMemoryStore()
	mailer := &utils.LogMailer{}
	queue := notify.NewQueue(mailer, 1, 50)
	tokens := utils.NewTokenManager("test-secret")
	files := storage.NewStorage(storage.NewLocalDisk(t.TempDir()))
	require.NoError(t, files.EnsureBucket(context.Background()))
	pay := &fakePayment{receipts: map[string]payment.Receipt{}}

	h := &harness{t: t, store: s, mailer: mailer, queue: queue, tokens: tokens, pay: pay}
	h.handler = NewRouter(Controllers{
		User:        controllers.NewUserController(s, tokens, queue, "http://localhost:5173"),
		Donation:    controllers.NewDonationController(s, files),
		Application: controllers.NewApplicationController(s),
		Delivery:    controllers.NewDeliveryController(s),
		Payment:     controllers.NewPaymentController(s, pay, pay, "http://localhost:5173", verifyPayments),
		Review:      controllers.NewReviewController(workflow.NewEngine(s, queue)),
	}, s, tokens, []string{"http://localhost:5173"})
	t.Cleanup(func() { _ = queue.Close() })
	return h
}

func (h *harness) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return h.serve(req, token)
}

// photo is one file part of a multipart donation form.
type photo struct {
	name string
	data []byte
}

func (h *harness) postDonation(fields map[string]string, photos ...photo) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	for _, p := range photos {
		fw, err := mw.CreateFormFile("foodPhotos[]", p.name)
		require.NoError(h.t, err)
		_, err = fw.Write(p.data)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/donationnew", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.serve(req, "")
}

func (h *harness) adminToken() string {
	h.t.Helper()
	hashed, err := utils.HashPassword("admin-pass")
	require.NoError(h.t, err)
	id, err := h.store.Create(context.Background(), store.Users, models.User{
		Role:     models.RoleAdmin,
		Email:    "admin-" + time.Now().Format("150405.000000000") + "@example.org",
		Password: hashed,
		Flags:    workflow.Flags{Approved: true, Status: "Approved"},
	})
	require.NoError(h.t, err)
	token, err := h.tokens.GenerateJWT(id.Hex(), "admin@example.org", models.RoleAdmin, "Admin")
	require.NoError(h.t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"role":         models.RoleDonor,
		"salutation":   "Ms",
		"english_name": "Alice",
		"company_name": "Alice Bakery",
		"email":        email,
		"password":     "s3cret",
	}
}

type loginResponse struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

func (h *harness) registerAndLogin(email string) (string, string) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/register", registerBody(email), "")
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]string](h.t, w)["id"]

	w = h.do(http.MethodPost, "/api/login", map[string]string{"email": email, "password": "s3cret"}, "")
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	return id, decode[loginResponse](h.t, w).Token
}

func TestDonationLifecycle(t *testing.T) {
	h := newHarness(t, false)
	admin := h.adminToken()
	donorID, _ := h.registerAndLogin("alice@example.org")

	w := h.postDonation(map[string]string{
		"title":           "Bread",
		"donorId":         donorID,
		"donorName":       "Alice",
		"pick_up_address": "1 Main St",
		"foodItems":       `[{"foodName":"Loaf","quantity":5},{"foodName":"Bun","quantity":12}]`,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	donationID := decode[map[string]string](t, w)["id"]

	// Not visible until approved.
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/donations", nil, "").Code)

	w = h.do(http.MethodGet, "/api/donation_application", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]models.Donation](t, w)
	require.Len(t, pending, 1)
	assert.Len(t, pending[0].FoodItems, 2)
	assert.Equal(t, "Pending", pending[0].Status)

	w = h.do(http.MethodPut, "/api/donation/"+donationID+"/approve", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/donations", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	visible := decode[[]models.Donation](t, w)
	require.Len(t, visible, 1)
	assert.True(t, visible[0].Approved)
	assert.Equal(t, "Approved", visible[0].Status)

	w = h.do(http.MethodGet, "/api/donation_application", nil, admin)
	assert.Empty(t, decode[[]models.Donation](t, w))
	w = h.do(http.MethodGet, "/api/donation_history", nil, admin)
	assert.Len(t, decode[[]models.Donation](t, w), 1)

	// A decided donation cannot be decided again.
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/donation/"+donationID+"/reject", nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/donation/"+donationID+"/approve", nil, admin).Code)

	w = h.do(http.MethodGet, "/api/donation/"+donorID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Donation](t, w), 1)

	require.NoError(t, h.queue.Close())
	sent := h.mailer.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.org", sent[0].To)
	assert.Equal(t, "Your Donation has been approved", sent[0].Subject)

	assert.EqualValues(t, 0, h.store.OpenHandles())
}

func TestDonationValidation(t *testing.T) {
	h := newHarness(t, false)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing title", map[string]string{"foodItems": `[{"foodName":"Loaf"}]`}},
		{"missing items", map[string]string{"title": "Bread"}},
		{"empty items", map[string]string{"title": "Bread", "foodItems": `[]`}},
		{"malformed items", map[string]string{"title": "Bread", "foodItems": `{nope`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, h.postDonation(tt.fields).Code)
		})
	}

	photos := make([]photo, 11)
	for i := range photos {
		photos[i] = photo{name: "p.jpg", data: []byte("x")}
	}
	w := h.postDonation(map[string]string{"title": "Bread", "foodItems": `[{"foodName":"Loaf"}]`}, photos...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDonationPhotoRoundTrip(t *testing.T) {
	h := newHarness(t, false)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	w := h.postDonation(map[string]string{
		"title":     "Fruit",
		"foodItems": `[{"foodName":"Apple"},{"foodName":"Pear"}]`,
	}, photo{name: "apple.png", data: png})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]string](t, w)["id"]

	w = h.do(http.MethodGet, "/api/donationdetail/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	donation := decode[models.Donation](t, w)
	require.Len(t, donation.FoodItems, 2)
	require.NotNil(t, donation.FoodItems[0].FoodPhoto)
	assert.True(t, strings.HasSuffix(*donation.FoodItems[0].FoodPhoto, "-apple.png"))
	assert.Nil(t, donation.FoodItems[1].FoodPhoto)

	w = h.do(http.MethodGet, "/uploads/"+*donation.FoodItems[0].FoodPhoto, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/uploads/missing.png", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/donationdetail/not-an-id", nil, "").Code)
}

func TestDonationKeepsItemFields(t *testing.T) {
	h := newHarness(t, false)

	w := h.postDonation(map[string]string{
		"title":     "Rice",
		"foodItems": `[{"foodName":"Rice","quantity":"10kg","foodType":"grain","foodPhoto":"other.png"},{"foodName":"Soup","quantity":3}]`,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]string](t, w)["id"]

	w = h.do(http.MethodGet, "/api/donationdetail/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	raw := decode[map[string]any](t, w)
	items := raw["foodItems"].([]any)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, "Rice", first["foodName"])
	assert.Equal(t, "10kg", first["quantity"])
	assert.Equal(t, "grain", first["foodType"])
	assert.Nil(t, first["foodPhoto"])
	assert.Contains(t, first, "foodPhoto")

	second := items[1].(map[string]any)
	assert.EqualValues(t, 3, second["quantity"])
}

func TestRegistration(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodPost, "/api/register", registerBody("Bob@Example.org"), "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodPost, "/api/register", registerBody("bob@example.org"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode[map[string]string](t, w)["message"])

	missing := registerBody("carol@example.org")
	delete(missing, "company_name")
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/register", missing, "").Code)

	asAdmin := registerBody("mallory@example.org")
	asAdmin["role"] = models.RoleAdmin
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/register", asAdmin, "").Code)

	w = h.do(http.MethodPost, "/api/login", map[string]string{"email": "bob@example.org", "password": "s3cret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "s3cret")
	resp := decode[loginResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Pending", resp.User["status"])

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/login", map[string]string{"email": "bob@example.org", "password": "nope"}, "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/login", map[string]string{"email": "nobody@example.org", "password": "x"}, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/login", map[string]string{"email": "bob@example.org"}, "").Code)
}

func TestLegacyPasswordIsUpgraded(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.store.Create(context.Background(), store.Users, models.User{
		Role:     models.RoleReceiver,
		Email:    "old@example.org",
		Password: "plain",
		Flags:    workflow.Initial(),
	})
	require.NoError(t, err)

	w := h.do(http.MethodPost, "/api/login", map[string]string{"email": "old@example.org", "password": "plain"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	user, err := store.FindFirst[models.User](context.Background(), h.store, store.Users, map[string]any{"email": "old@example.org"})
	require.NoError(t, err)
	assert.True(t, utils.IsHashed(user.Password))
	assert.True(t, utils.CheckPassword(user.Password, "plain"))
}

func TestLegacyMixedCaseEmailLogin(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.store.Create(context.Background(), store.Users, models.User{
		Role:     models.RoleDonor,
		Email:    "Mixed@Example.org",
		Password: "plain",
		Flags:    workflow.Initial(),
	})
	require.NoError(t, err)

	w := h.do(http.MethodPost, "/api/login", map[string]string{"email": " Mixed@Example.org ", "password": "plain"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[map[string]any](t, w)["token"])

	w = h.do(http.MethodPost, "/api/login", map[string]string{"email": "MIXED@example.org", "password": "plain"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t, false)
	_, donor := h.registerAndLogin("dan@example.org")

	paths := []string{
		"/api/donation_application",
		"/api/donation_history",
		"/api/receiver_application",
		"/api/receivers_history",
		"/api/user_application",
		"/api/user_history",
		"/api/donorcontent",
		"/api/receivercontent",
		"/api/delivery",
		"/api/record-donation",
	}
	for _, p := range paths {
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, p, nil, "").Code, p)
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, p, nil, donor).Code, p)
	}
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/api/users/000000000000000000000000/approve", nil, donor).Code)
}

func TestUserReview(t *testing.T) {
	h := newHarness(t, false)
	admin := h.adminToken()
	userID, _ := h.registerAndLogin("erin@example.org")

	w := h.do(http.MethodGet, "/api/user_application", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 1)
	assert.NotContains(t, w.Body.String(), "password")

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/api/users/"+userID+"/reject", nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/users/"+userID+"/approve", nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/users/garbage/approve", nil, admin).Code)

	w = h.do(http.MethodGet, "/api/user_history", nil, admin)
	history := decode[[]models.User](t, w)
	require.Len(t, history, 2)

	w = h.do(http.MethodGet, "/api/donorcontent", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 1)

	require.NoError(t, h.queue.Close())
	sent := h.mailer.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "erin@example.org", sent[0].To)
	assert.Equal(t, "Your Registration has been rejected", sent[0].Subject)
}

func TestApplicationForUnknownDonation(t *testing.T) {
	h := newHarness(t, false)
	admin := h.adminToken()

	w := h.do(http.MethodPost, "/api/applicationnew", map[string]string{
		"title":       "Need bread",
		"applicant":   "Shelter",
		"applicantId": "abc",
		"donationId":  "000000000000000000000000",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appID := decode[map[string]string](t, w)["id"]

	w = h.do(http.MethodGet, "/api/receiver_application", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	apps := decode[[]models.Application](t, w)
	require.Len(t, apps, 1)
	assert.Equal(t, "000000000000000000000000", apps[0].DonationID)

	// No owner user exists, so approval succeeds without a notification.
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/api/receivers/"+appID+"/approve", nil, admin).Code)
	require.NoError(t, h.queue.Close())
	assert.Empty(t, h.mailer.Messages())

	w = h.do(http.MethodGet, "/api/application/abc", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[[]models.Application](t, w)[0].Approved)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/application/other", nil, "").Code)
}

func TestApplicationFromForm(t *testing.T) {
	h := newHarness(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Need rice"))
	require.NoError(t, mw.WriteField("applicantId", "r1"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/applicationnew", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, h.serve(req, "").Code)

	w := h.do(http.MethodGet, "/api/application/r1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Need rice", decode[[]models.Application](t, w)[0].Title)
}

func TestProfileUpdate(t *testing.T) {
	h := newHarness(t, false)
	aliceID, alice := h.registerAndLogin("alice@example.org")
	_, bob := h.registerAndLogin("bob@example.org")

	update := map[string]any{"phone": "555-0100", "password": "hijack", "approved": true, "role": models.RoleAdmin}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPut, "/api/donordetail/"+aliceID, update, "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/api/donordetail/"+aliceID, update, bob).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/api/donordetail/"+aliceID, update, alice).Code)

	w := h.do(http.MethodGet, "/api/donordetail/"+aliceID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[models.User](t, w)
	assert.Equal(t, "555-0100", user.Phone)
	assert.False(t, user.Approved)
	assert.Equal(t, models.RoleDonor, user.Role)

	// The password was not touched and a fresh login is still a donor.
	w = h.do(http.MethodPost, "/api/login", map[string]string{"email": "alice@example.org", "password": "s3cret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	relogin := decode[map[string]any](t, w)["token"].(string)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/donorcontent", nil, relogin).Code)

	w = h.do(http.MethodPut, "/api/donordetail/"+aliceID, map[string]any{"email": "bob@example.org"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/api/donordetail/"+aliceID, map[string]any{"_id": "x"}, alice).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/receiverdetail/000000000000000000000000", nil, "").Code)
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t, false)
	id, _ := h.registerAndLogin("frank@example.org")

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/reset-password", map[string]string{"id": id}, "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/reset-password", map[string]string{"id": "000000000000000000000000"}, "").Code)

	token, err := h.tokens.GenerateResetToken(id, "frank@example.org")
	require.NoError(t, err)
	access, err := h.tokens.GenerateJWT(id, "frank@example.org", models.RoleDonor, "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/reset-password/confirm", map[string]string{"token": access, "password": "new"}, "").Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/reset-password/confirm", map[string]string{"token": token, "password": "new"}, "").Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/login", map[string]string{"email": "frank@example.org", "password": "new"}, "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/login", map[string]string{"email": "frank@example.org", "password": "s3cret"}, "").Code)

	require.NoError(t, h.queue.Close())
	sent := h.mailer.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Reset Your Password", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "http://localhost:5173/reset-password?token=")
}

func TestMoneyDonations(t *testing.T) {
	h := newHarness(t, false)
	admin := h.adminToken()

	w := h.do(http.MethodPost, "/api/create-checkout-session", map[string]any{"eventName": "Alice", "eventPrice": 50000, "uniqueKey": "k1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://pay.example/DONATION-k1", decode[map[string]string](t, w)["url"])
	require.Len(t, h.pay.sessions, 1)
	assert.EqualValues(t, 50000, h.pay.sessions[0].Amount)
	assert.Contains(t, h.pay.sessions[0].ReturnURL, "orderId=DONATION-k1")

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/create-checkout-session", map[string]any{"eventName": "Alice"}, "").Code)

	record := map[string]any{"donorName": "Alice", "donationAmount": "50000", "orderId": "DONATION-k1"}
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/record-donation", record, "").Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/record-donation", record, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/record-donation", map[string]any{"donorName": "Alice"}, "").Code)

	w = h.do(http.MethodGet, "/api/record-donation", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	records := decode[[]models.MoneyDonation](t, w)
	require.Len(t, records, 1)
	assert.EqualValues(t, 50000, records[0].DonationAmount)
	assert.False(t, records[0].Verified)
}

func TestMoneyDonationsVerified(t *testing.T) {
	h := newHarness(t, true)
	h.pay.receipts["DONATION-paid"] = payment.Receipt{OrderID: "DONATION-paid", Status: "settlement", GrossAmount: 20000}
	h.pay.receipts["DONATION-pending"] = payment.Receipt{OrderID: "DONATION-pending", Status: "pending", GrossAmount: 20000}

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"no order id", map[string]any{"donorName": "A", "donationAmount": 20000}, http.StatusBadRequest},
		{"unknown order", map[string]any{"donorName": "A", "donationAmount": 20000, "orderId": "DONATION-x"}, http.StatusPaymentRequired},
		{"not settled", map[string]any{"donorName": "A", "donationAmount": 20000, "orderId": "DONATION-pending"}, http.StatusPaymentRequired},
		{"amount mismatch", map[string]any{"donorName": "A", "donationAmount": 99999, "orderId": "DONATION-paid"}, http.StatusPaymentRequired},
		{"settled", map[string]any{"donorName": "A", "donationAmount": 20000, "orderId": "DONATION-paid"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.do(http.MethodPost, "/api/record-donation", tt.body, "").Code)
		})
	}

	records, err := store.FindAll[models.MoneyDonation](context.Background(), h.store, store.DonateMoney, map[string]any{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Verified)
}

func TestDeliveries(t *testing.T) {
	h := newHarness(t, false)
	admin := h.adminToken()

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/delivery", nil, admin).Code)

	w := h.do(http.MethodPost, "/api/delivery", map[string]string{
		"orderId":     "o1",
		"applicantId": "r1",
		"type":        models.DeliveryPickup,
		"date":        "2024-05-01",
		"address":     "1 Main St",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodGet, "/api/delivery/r1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	deliveries := decode[[]models.Delivery](t, w)
	require.Len(t, deliveries, 1)
	assert.Equal(t, models.DeliveryStatusWait, deliveries[0].Status)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/delivery/other", nil, "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/delivery", nil, admin).Code)
}

func TestHealthAndUnavailableStore(t *testing.T) {
	h := newHarness(t, false)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", nil, "").Code)

	require.NoError(t, h.store.Close(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/healthz", nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/donations", nil, "").Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := h.serve(req, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = h.serve(req, "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
