package handler

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ghostpost/internal/attestation/handler/mocks"
	"ghostpost/internal/attestation/models"
	"ghostpost/internal/continuation"
	"ghostpost/internal/prover"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	"ghostpost/pkg/platform/middleware/auth"
	"ghostpost/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/attestation-mocks.go -package=mocks Service

type stubValidator struct {
	userID string
}

func (s stubValidator) ValidateToken(token string) (*auth.JWTClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.JWTClaims{UserID: s.userID, Username: "alice"}, nil
}

func newRouter(t *testing.T, userID uuid.UUID) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	New(svc, logger, stubValidator{userID: userID.String()}).Register(r)
	return r, svc
}

func TestHandleServerKey(t *testing.T) {
	r, svc := newRouter(t, uuid.New())
	svc.EXPECT().PublicKey().Return([]byte{0x02, 0xab})
	svc.EXPECT().ProgramID().Return(prover.DefaultProgramID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zk/server-key", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ServerKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "02ab", resp.PublicKey)
	assert.Equal(t, prover.DefaultProgramID.String(), resp.ProgramID)
}

func TestHandleEnroll(t *testing.T) {
	userID := uuid.New()
	commitment := continuation.Commitment(sha256.Sum256([]byte("c")))
	body := `{"commitment":"` + commitment.String() + `"}`

	t.Run("requires a bearer token", func(t *testing.T) {
		r, _ := newRouter(t, userID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/zk/enroll", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("enrolls the authenticated user", func(t *testing.T) {
		r, svc := newRouter(t, userID)
		svc.EXPECT().Enroll(gomock.Any(), domain.UserID(userID), commitment).
			Return(&models.Attestation{Commitment: commitment, Signature: []byte{1, 2}, PublicKey: []byte{3}}, nil)

		req := httptest.NewRequest(http.MethodPost, "/zk/enroll", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp models.AttestationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "0102", resp.Signature)
		assert.Equal(t, "03", resp.PublicKey)
		assert.Equal(t, commitment.String(), resp.Commitment)
	})

	t.Run("malformed commitment is a validation error", func(t *testing.T) {
		r, _ := newRouter(t, userID)
		req := httptest.NewRequest(http.MethodPost, "/zk/enroll", strings.NewReader(`{"commitment":"zz"}`))
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("second enrollment conflicts", func(t *testing.T) {
		r, svc := newRouter(t, userID)
		svc.EXPECT().Enroll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "user already enrolled"))

		req := httptest.NewRequest(http.MethodPost, "/zk/enroll", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"conflict","error_description":"user already enrolled"}`, w.Body.String())
	})
}

func TestHandleSubmitProof(t *testing.T) {
	receipt := prover.Receipt{ProgramID: prover.DefaultProgramID.String(), Journal: []byte{1}, Seal: []byte{2}}
	submit := func(t *testing.T, r http.Handler) *httptest.ResponseRecorder {
		return testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/zk/submit-proof", receipt))
	}

	t.Run("accepted proof returns the new ticket as a decimal string", func(t *testing.T) {
		r, svc := newRouter(t, uuid.New())
		big, err := domain.ParseTicket("340282366920938463463374607431768211455")
		require.NoError(t, err)
		svc.EXPECT().Submit(gomock.Any(), &receipt).Return(&models.Accepted{
			Record: models.Record{
				Commitment:  continuation.Commitment{0xaa},
				ReplayNonce: domain.NonceFrom64(8),
				NewTicket:   big,
			},
			Attestation: models.Attestation{Signature: []byte{0xff}, PublicKey: []byte{0x02}},
		}, nil)

		w := submit(t, r)

		require.Equal(t, http.StatusOK, w.Code)
		resp := testutil.UnmarshalResponse[models.SubmitResponse](t, w)
		assert.Equal(t, "Proof verified & stored.", resp.Message)
		assert.Equal(t, "340282366920938463463374607431768211455", resp.NewTicket)
		assert.Equal(t, "8", resp.ReplayNonce)
		assert.Equal(t, "ff", resp.Signature)
	})

	t.Run("replay is a 409", func(t *testing.T) {
		r, svc := newRouter(t, uuid.New())
		svc.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeReplayDetected, "replay nonce already used"))

		testutil.AssertStatusAndError(t, submit(t, r), http.StatusConflict, "replay_detected")
	})

	t.Run("invalid proof is a 400", func(t *testing.T) {
		r, svc := newRouter(t, uuid.New())
		svc.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidProof, "proof verification failed"))

		testutil.AssertStatusAndError(t, submit(t, r), http.StatusBadRequest, "invalid_proof")
	})

	t.Run("empty body is rejected before the service", func(t *testing.T) {
		r, _ := newRouter(t, uuid.New())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/zk/submit-proof", strings.NewReader("")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleTicketStatus(t *testing.T) {
	r, svc := newRouter(t, uuid.New())
	svc.EXPECT().IsIssued(gomock.Any(), domain.TicketFrom64(12)).Return(true, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zk/tickets/12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ticket":"12","issued":true}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zk/tickets/-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
