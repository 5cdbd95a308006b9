package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/nurpe/payments-service/internal/auth"
	"github.com/nurpe/payments-service/internal/excel"
	"github.com/nurpe/payments-service/internal/http/middleware"
	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/pdf"
	"github.com/nurpe/payments-service/internal/repository"
	"github.com/nurpe/payments-service/internal/service"
	"github.com/nurpe/payments-service/internal/testdb"
)

type testServer struct {
	db     *gorm.DB
	router http.Handler
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	database := testdb.Open(t)
	log := zerolog.Nop()
	ledger := repository.NewLedgerRepository(database)

	contracts := service.NewContractService(ledger)
	payments := service.NewPaymentService(ledger, pdf.NewGenerator(), log)
	reports := service.NewReportService(repository.NewReportRepository(database), excel.NewGenerator())

	handler := NewHandler(contracts, payments, reports, 2, log)
	authMiddleware := middleware.Auth(auth.NewParser(""), contracts)
	router := NewRouter(handler, authMiddleware, "test", nil, log)

	return testServer{db: database, router: router}
}

func (s testServer) do(t *testing.T, method, path string, profileID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if profileID != 0 {
		req.Header.Set(middleware.ProfileHeader, strconv.FormatInt(profileID, 10))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestGetContract(t *testing.T) {
	s := newTestServer(t)
	client := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	intruder := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	contract := testdb.CreateContract(t, s.db, client.ID, contractor.ID)

	t.Run("owner", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, fmt.Sprintf("/contracts/%d", contract.ID), client.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(contract.ID), body["id"])
		assert.Equal(t, "bla bla bla", body["terms"])
		assert.Equal(t, "in_progress", body["status"])
		assert.Equal(t, float64(client.ID), body["ClientId"])
		assert.Equal(t, float64(contractor.ID), body["ContractorId"])
	})

	t.Run("not a party", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, fmt.Sprintf("/contracts/%d", contract.ID), intruder.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, fmt.Sprintf("/contracts/%d", contract.ID), 0, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/contracts/abc", client.ID, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListContracts(t *testing.T) {
	s := newTestServer(t)
	client1 := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor1 := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	client2 := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor2 := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	testdb.CreateContract(t, s.db, client1.ID, contractor1.ID)
	testdb.CreateContract(t, s.db, client2.ID, contractor2.ID)

	rec := s.do(t, http.MethodGet, "/contracts", client1.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 1)

	rec = s.do(t, http.MethodGet, "/contracts?status=archived", client1.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUnpaidJobs(t *testing.T) {
	s := newTestServer(t)
	client := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	contract := testdb.CreateContract(t, s.db, client.ID, contractor.ID)
	testdb.CreateJob(t, s.db, contract.ID, 200)
	testdb.CreatePaidJob(t, s.db, contract.ID, 200, time.Now())

	rec := s.do(t, http.MethodGet, "/jobs/unpaid", client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, false, body[0]["paid"])
}

func TestPayJob(t *testing.T) {
	s := newTestServer(t)
	client := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	contract := testdb.CreateContract(t, s.db, client.ID, contractor.ID)
	job := testdb.CreateJob(t, s.db, contract.ID, 200)
	expensive := testdb.CreateJob(t, s.db, contract.ID, 5000)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/pay", job.ID), client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Job successfully paid"}`, rec.Body.String())

	assert.True(t, testdb.ReloadJob(t, s.db, job.ID).Paid)
	assert.Equal(t, client.Balance-200, testdb.ReloadProfile(t, s.db, client.ID).Balance)
	assert.Equal(t, contractor.Balance+200, testdb.ReloadProfile(t, s.db, contractor.ID).Balance)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/pay", job.ID), client.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "already paid")

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/pay", expensive.ID), client.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Insufficient funds"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/pay", expensive.ID), contractor.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "contractor cannot pay")
}

func TestJobReceipt(t *testing.T) {
	s := newTestServer(t)
	client := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	contract := testdb.CreateContract(t, s.db, client.ID, contractor.ID)
	job := testdb.CreateJob(t, s.db, contract.ID, 200)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/jobs/%d/receipt", job.ID), client.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/pay", job.ID), client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/jobs/%d/receipt", job.ID), contractor.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestDeposit(t *testing.T) {
	s := newTestServer(t)
	client := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	contract := testdb.CreateContract(t, s.db, client.ID, contractor.ID)
	testdb.CreateJob(t, s.db, contract.ID, 400)

	path := fmt.Sprintf("/balances/deposit/%d", client.ID)

	rec := s.do(t, http.MethodPost, path, client.ID, jsonBody{"amount": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, path, client.ID, jsonBody{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Deposit executed successfully!"}`, rec.Body.String())
	assert.Equal(t, client.Balance+100, testdb.ReloadProfile(t, s.db, client.ID).Balance)

	rec = s.do(t, http.MethodPost, path, contractor.ID, jsonBody{"amount": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code, "cannot deposit into another profile")

	rec = s.do(t, http.MethodPost, path, client.ID, jsonBody{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type jsonBody map[string]any

func seedProfessionReport(t *testing.T, s testServer) {
	t.Helper()

	paidAt := time.Date(2022, time.June, 1, 10, 0, 0, 0, time.UTC)
	client := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	programmer := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	musician := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor, testdb.WithProfession("Musician"))
	fighter := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor, testdb.WithProfession("Fighter"))

	forProgrammer := testdb.CreateContract(t, s.db, client.ID, programmer.ID)
	forMusician := testdb.CreateContract(t, s.db, client.ID, musician.ID)
	forFighter := testdb.CreateContract(t, s.db, client.ID, fighter.ID)

	testdb.CreatePaidJob(t, s.db, forProgrammer.ID, 2000, paidAt)
	testdb.CreatePaidJob(t, s.db, forMusician.ID, 1000, paidAt)
	testdb.CreatePaidJob(t, s.db, forMusician.ID, 999, paidAt)
	testdb.CreatePaidJob(t, s.db, forFighter.ID, 1000, paidAt)
}

func TestBestProfession(t *testing.T) {
	s := newTestServer(t)
	seedProfessionReport(t, s)

	rec := s.do(t, http.MethodGet, "/admin/best-profession?start=2022-03-31&end=2022-12-31", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"profession": "Programmer", "amountPaid": 2000},
		{"profession": "Musician", "amountPaid": 1999},
		{"profession": "Fighter", "amountPaid": 1000}
	]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/admin/best-profession?start=2022-03-31&end=2022-12-31&limit=1", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"profession": "Programmer", "amountPaid": 2000}]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/admin/best-profession?start=2023-01-01&end=2023-12-31", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBestProfession_InstantWindow(t *testing.T) {
	s := newTestServer(t)
	seedProfessionReport(t, s)

	rec := s.do(t, http.MethodGet, "/admin/best-profession?start=2022-06-01T11:00:00Z&end=2022-06-01T12:00:00Z", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/admin/best-profession?start=2022-06-01T09:00:00Z&end=2022-06-01T10:00:00Z&limit=1", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"profession": "Programmer", "amountPaid": 2000}]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/admin/best-profession?start=2022-06-01&end=2022-06-01&limit=1", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"profession": "Programmer", "amountPaid": 2000}]`, rec.Body.String())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw      string
		want     time.Time
		bareDate bool
	}{
		{raw: "2022-06-01", want: time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), bareDate: true},
		{raw: "2022-06-01T12:30:00Z", want: time.Date(2022, time.June, 1, 12, 30, 0, 0, time.UTC)},
		{raw: "2022-06-01T12:30:00", want: time.Date(2022, time.June, 1, 12, 30, 0, 0, time.UTC)},
		{raw: "2022-06-01T17:30:00+05:00", want: time.Date(2022, time.June, 1, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, bareDate, err := parseDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, tt.bareDate, bareDate)
		})
	}

	_, _, err := parseDate("yesterday")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestBestClient(t *testing.T) {
	s := newTestServer(t)
	paidAt := time.Date(2022, time.June, 1, 10, 0, 0, 0, time.UTC)
	client1 := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	client2 := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	client3 := testdb.CreateProfile(t, s.db, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, s.db, model.ProfileRoleContractor)
	contract1 := testdb.CreateContract(t, s.db, client1.ID, contractor.ID)
	contract2 := testdb.CreateContract(t, s.db, client2.ID, contractor.ID)
	contract3 := testdb.CreateContract(t, s.db, client3.ID, contractor.ID)

	testdb.CreatePaidJob(t, s.db, contract1.ID, 999, paidAt)
	testdb.CreatePaidJob(t, s.db, contract1.ID, 1000, paidAt)
	testdb.CreatePaidJob(t, s.db, contract2.ID, 2000, paidAt)
	testdb.CreatePaidJob(t, s.db, contract3.ID, 5, paidAt)

	rec := s.do(t, http.MethodGet, "/admin/best-client?start=2022-03-31&end=2022-12-31", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`[
		{"id": "%d", "amountPaid": 2000},
		{"id": "%d", "amountPaid": 1999}
	]`, client2.ID, client1.ID), rec.Body.String())

	rec = s.do(t, http.MethodGet, "/admin/best-client?start=2022-03-31&end=2022-12-31&limit=3", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 3)
}

func TestRankingValidation(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/admin/best-profession",
		"/admin/best-profession?start=2022-03-31",
		"/admin/best-profession?start=yesterday&end=2022-12-31",
		"/admin/best-client?start=2022-03-31&end=2022-12-31&limit=0",
		"/admin/best-client?start=2022-03-31&end=2022-12-31&limit=two",
		"/admin/best-client?start=2022-12-31&end=2022-03-31",
		"/admin/best-client?start=2022-03-31&end=2022-12-31&groupBy=balance",
	} {
		t.Run(path, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, path, 0, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestExportBestProfession(t *testing.T) {
	s := newTestServer(t)
	seedProfessionReport(t, s)

	rec := s.do(t, http.MethodGet, "/admin/best-profession/export?start=2022-03-31&end=2022-12-31", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "best-contractor-by-profession-20220331-20221231.xlsx")

	file, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer file.Close()

	top, err := file.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "Programmer", top)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
