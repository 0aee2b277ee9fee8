package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/qchaucoin/ledger/coin"
	"github.com/qchaucoin/ledger/internal/auth"
	"github.com/qchaucoin/ledger/internal/errors"
	"github.com/qchaucoin/ledger/internal/model"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// CoinHandler serves the account, transfer and chain endpoints.
type CoinHandler struct {
	svc    *coin.Service
	logger *zap.Logger
}

// NewCoinHandler creates a new CoinHandler.
func NewCoinHandler(svc *coin.Service, logger *zap.Logger) *CoinHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoinHandler{svc: svc, logger: logger}
}

// Register handles POST /auth/register
// @Summary      Register account
// @Description  Creates an account with a new RSA key pair and the welcome balance. The private key is only returned here.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.RegisterRequest  true  "Account data"
// @Success      201      {object}  model.RegisterResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /auth/register [post]
func (h *CoinHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
// @Summary      Log in
// @Description  Checks email and password and returns a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Credentials"
// @Success      200      {object}  model.LoginResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Router       /auth/login [post]
func (h *CoinHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Account handles GET /account
// @Summary      Get account
// @Description  Returns the profile of the logged in user
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Param        userId  query     string  true  "Account ID"
// @Success      200     {object}  model.AccountResponse
// @Failure      401     {object}  model.ErrorResponse
// @Failure      403     {object}  model.ErrorResponse
// @Failure      404     {object}  model.ErrorResponse
// @Router       /account [get]
func (h *CoinHandler) Account(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.WriteError(w, errors.ErrUnauthenticated.New("no session"))
		return
	}

	resp, err := h.svc.GetAccount(r.Context(), r.URL.Query().Get("userId"), claims.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Balance handles GET /balance
// @Summary      Get balance
// @Description  Returns the balance of the account owning the public key
// @Tags         account
// @Produce      json
// @Param        publicKey  query     string  true  "Public key, PEM or bare base64"
// @Success      200        {object}  model.BalanceResponse
// @Failure      400        {object}  model.ErrorResponse
// @Failure      404        {object}  model.ErrorResponse
// @Router       /balance [get]
func (h *CoinHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.svc.GetBalance(r.Context(), r.URL.Query().Get("publicKey"))
	if err != nil {
		h.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Transfer handles POST /transfer
// @Summary      Transfer coins
// @Description  Submits a transfer signed with the sender private key over {"remitente","destinatario","monto"}
// @Tags         transfer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      model.TransferRequest  true  "Signed transfer"
// @Success      200      {object}  model.TransferResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /transfer [post]
func (h *CoinHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.WriteError(w, errors.ErrUnauthenticated.New("no session"))
		return
	}

	var req model.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.svc.SubmitTransfer(r.Context(), &req, claims.Identity())
	if err != nil {
		h.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// TransactionHistory handles GET /transactions
// @Summary      Transaction history with filters
// @Description  Lists transfers of the logged in account, newest first. Filter by type, date range and amount.
// @Tags         transfer
// @Produce      json
// @Security     BearerAuth
// @Param        publicKey  query     string  true   "Public key of the account"
// @Param        type       query     string  false  "DEBIT (sent) or CREDIT (received)"
// @Param        from       query     string  false  "From date (RFC3339 or YYYY-MM-DD)"
// @Param        to         query     string  false  "To date (RFC3339 or YYYY-MM-DD)"
// @Param        minAmount  query     string  false  "Minimum amount"
// @Param        maxAmount  query     string  false  "Maximum amount"
// @Success      200        {object}  model.HistoryResponse
// @Failure      400        {object}  model.ErrorResponse
// @Failure      403        {object}  model.ErrorResponse
// @Router       /transactions [get]
func (h *CoinHandler) TransactionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.WriteError(w, errors.ErrUnauthenticated.New("no session"))
		return
	}

	query := r.URL.Query()
	req := &model.HistoryRequest{}

	if v := query.Get("type"); v != "" {
		typ := model.TransactionType(strings.ToUpper(v))
		req.Type = &typ
	}
	if v := query.Get("from"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			h.WriteError(w, errors.ErrInvalidRequest.New("invalid from date"))
			return
		}
		req.From = &t
	}
	if v := query.Get("to"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			h.WriteError(w, errors.ErrInvalidRequest.New("invalid to date"))
			return
		}
		req.To = &t
	}
	if v := query.Get("minAmount"); v != "" {
		req.MinAmount = &v
	}
	if v := query.Get("maxAmount"); v != "" {
		req.MaxAmount = &v
	}

	resp, err := h.svc.GetTransactions(r.Context(), query.Get("publicKey"), claims.Identity(), req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Chain handles GET /chain
// @Summary      Get chain
// @Description  Returns every block from genesis to head
// @Tags         chain
// @Produce      json
// @Success      200  {object}  model.ChainResponse
// @Router       /chain [get]
func (h *CoinHandler) Chain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetChain(r.Context()))
}

// VerifyChain handles GET /chain/verify
// @Summary      Verify chain
// @Description  Recomputes every block hash and link
// @Tags         chain
// @Produce      json
// @Success      200  {object}  model.ChainVerifyResponse
// @Router       /chain/verify [get]
func (h *CoinHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.VerifyChain(r.Context()))
}

// WriteError writes err as a model.ErrorResponse with the status of its
// registered kind.
func (h *CoinHandler) WriteError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, model.ErrorResponse{
		Error: err.Error(),
		Code:  errors.Code(err),
	})
}

func (h *CoinHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.WriteError(w, errors.ErrInvalidRequest.Newf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDate accepts RFC3339 or a plain date. A plain "to" date covers the
// whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
