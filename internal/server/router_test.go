package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/internal/event"
	"vault-bridge/internal/handler"
	"vault-bridge/internal/service"
	"vault-bridge/internal/service/mq"
	"vault-bridge/internal/store"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/borsh"
	"vault-bridge/pkg/cache"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/derivation"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/requestid"
	"vault-bridge/pkg/sigverify"
)

const testAsset = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"

type fakeEnqueuer struct {
	ops []string
}

func (f *fakeEnqueuer) EnqueueRelay(_ context.Context, op, requestID string, _ []byte) (*asynq.TaskInfo, error) {
	f.ops = append(f.ops, op)
	return &asynq.TaskInfo{ID: op + ":" + requestID}, nil
}

type apiFixture struct {
	t        *testing.T
	router   *gin.Engine
	signer   *ecdsa.PrivateKey
	owner    ed25519.PrivateKey
	user     authority.PublicKey
	cfg      service.BridgeConfig
	enqueuer *fakeEnqueuer
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	bc := config.Defaults().Bridge
	bc.TrustedSignerAddress = crypto.PubkeyToAddress(key.PublicKey).Hex()
	cfg, err := service.NewBridgeConfig(bc)
	require.NoError(t, err)

	st := store.NewMemoryStore(mq.NewMemoryBroker())
	bridge := service.NewBridgeService(cfg, st)
	vault := service.NewVaultService(cfg, st, bc.SignatureRequestTopic)

	base, err := derivation.ParseBasePublicKey(bc.MPCBasePublicKey)
	require.NoError(t, err)
	authorities := authority.NewDeriver(cfg.ProgramID)
	addresses := service.NewAddressService(derivation.NewDeriver(base, authorities), authorities,
		cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	f := &apiFixture{t: t, signer: key, cfg: cfg, enqueuer: &fakeEnqueuer{}}
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 9
	f.owner = ed25519.NewKeyFromSeed(seed)
	f.user, err = authority.PublicKeyFromEd25519(f.owner.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	f.router = NewHTTPRouter(Handlers{
		Bridge:  handler.NewBridgeHandler(bridge, vault),
		Address: handler.NewAddressHandler(addresses),
		Relayer: handler.NewRelayerHandler(f.enqueuer),
	})
	return f
}

func (f *apiFixture) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

var txParams = map[string]interface{}{
	"gas_limit":                100000,
	"max_fee_per_gas":          "30000000000",
	"max_priority_fee_per_gas": "1000000000",
	"nonce":                    1,
	"chain_id":                 11155111,
}

// depositID 客户端按协议规则预先计算请求 ID
func (f *apiFixture) depositID(amount int64) requestid.ID {
	f.t.Helper()
	sender, err := authority.NewDeriver(f.cfg.ProgramID).VaultAuthority(f.user)
	require.NoError(f.t, err)
	u, err := evmtx.NewCodec(f.cfg.DepositRecipient).BuildTransfer(evmtx.Transfer{
		Operation: evmtx.OperationDeposit,
		Asset:     common.HexToAddress(testAsset),
		Amount:    big.NewInt(amount),
	}, evmtx.TxParams{
		GasLimit:             100000,
		MaxFeePerGas:         big.NewInt(30000000000),
		MaxPriorityFeePerGas: big.NewInt(1000000000),
		Nonce:                1,
		ChainID:              11155111,
	})
	require.NoError(f.t, err)
	return requestid.EthereumSigning(f.user.String()).Request(sender.String(), u.Bytes, requestid.SLIP44Ethereum).ID()
}

const testRecipient = "0x4444444444444444444444444444444444444444"

// withdrawID 提现的 sender 为全局金库身份, 路径固定为 root
func (f *apiFixture) withdrawID(amount int64, nonce uint64) requestid.ID {
	f.t.Helper()
	sender, err := authority.NewDeriver(f.cfg.ProgramID).GlobalVaultAuthority()
	require.NoError(f.t, err)
	u, err := evmtx.NewCodec(f.cfg.DepositRecipient).BuildTransfer(evmtx.Transfer{
		Operation: evmtx.OperationWithdraw,
		Asset:     common.HexToAddress(testAsset),
		Recipient: common.HexToAddress(testRecipient),
		Amount:    big.NewInt(amount),
	}, evmtx.TxParams{
		GasLimit:             100000,
		MaxFeePerGas:         big.NewInt(30000000000),
		MaxPriorityFeePerGas: big.NewInt(1000000000),
		Nonce:                nonce,
		ChainID:              11155111,
	})
	require.NoError(f.t, err)
	return requestid.EthereumSigning("root").Request(sender.String(), u.Bytes, requestid.SLIP44Ethereum).ID()
}

func (f *apiFixture) signed(id requestid.ID, output []byte) map[string]interface{} {
	f.t.Helper()
	hash := sigverify.MessageHash(id, output)
	raw, err := crypto.Sign(hash[:], f.signer)
	require.NoError(f.t, err)
	sig, err := sigverify.FromBytes(raw)
	require.NoError(f.t, err)
	return map[string]interface{}{
		"serialized_output": hex.EncodeToString(output),
		"signature":         event.NewRecoverableSignature(sig),
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	w, out := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", out["data"].(map[string]interface{})["status"])
}

func TestDepositOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	id := f.depositID(100)

	w, out := f.do(http.MethodPost, "/api/v1/deposits", map[string]interface{}{
		"request_id":    id.Hex(),
		"requester":     f.user.String(),
		"erc20_address": testAsset,
		"amount":        "100",
		"tx_params":     txParams,
	})
	require.Equal(t, http.StatusOK, w.Code, out)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, id.Hex(), data["request_id"])

	w, _ = f.do(http.MethodGet, "/api/v1/deposits/"+id.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, out = f.do(http.MethodPost, "/api/v1/deposits/"+id.Hex()+"/claim", f.signed(id, borsh.EncodeBool(true)))
	require.Equal(t, http.StatusOK, w.Code, out)

	w, out = f.do(http.MethodGet, "/api/v1/balances/"+f.user.String()+"/"+testAsset, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", out["data"].(map[string]interface{})["amount"])

	// 重放
	w, out = f.do(http.MethodPost, "/api/v1/deposits/"+id.Hex()+"/claim", f.signed(id, borsh.EncodeBool(true)))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(errno.ErrRequestNotFound.Code), out["code"])
}

func TestErrorStatuses(t *testing.T) {
	f := newAPIFixture(t)

	w, out := f.do(http.MethodPost, "/api/v1/deposits", map[string]interface{}{"requester": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(errno.ErrBind.Code), out["code"])

	// 请求 ID 与交易不一致
	w, out = f.do(http.MethodPost, "/api/v1/deposits", map[string]interface{}{
		"request_id":    "0x" + hex.EncodeToString(make([]byte, 32)),
		"requester":     f.user.String(),
		"erc20_address": testAsset,
		"amount":        "100",
		"tx_params":     txParams,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(errno.ErrInvalidRequestID.Code), out["code"])

	w, _ = f.do(http.MethodGet, "/api/v1/withdrawals/0x12", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(http.MethodGet, "/api/v1/balances/"+f.user.String()+"/0x12", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddressesOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	w, out := f.do(http.MethodGet, "/api/v1/addresses/"+f.user.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	addr := out["data"].(map[string]interface{})["address"].(string)
	assert.True(t, common.IsHexAddress(addr))

	w, out = f.do(http.MethodGet, "/api/v1/vault/address", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root", out["data"].(map[string]interface{})["path"])
}

func TestRelayerNotify(t *testing.T) {
	f := newAPIFixture(t)
	u, err := evmtx.Build(common.HexToAddress(testAsset), nil, evmtx.TxParams{
		GasLimit: 21000, MaxFeePerGas: big.NewInt(1), ChainID: 1,
	})
	require.NoError(t, err)

	w, out := f.do(http.MethodPost, "/api/v1/relayer/notify-withdrawal", map[string]interface{}{
		"request_id":    "0x" + hex.EncodeToString(make([]byte, 32)),
		"serialized_tx": hex.EncodeToString(u.Bytes),
	})
	require.Equal(t, http.StatusAccepted, w.Code, out)
	assert.Equal(t, []string{"withdraw"}, f.enqueuer.ops)

	w, _ = f.do(http.MethodPost, "/api/v1/relayer/notify-deposit", map[string]interface{}{
		"request_id":    "0x" + hex.EncodeToString(make([]byte, 32)),
		"serialized_tx": "zz",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, f.enqueuer.ops, 1)
}

func TestWithdrawalRequiresOwnerSignature(t *testing.T) {
	f := newAPIFixture(t)
	dep := f.depositID(100)
	w, out := f.do(http.MethodPost, "/api/v1/deposits", map[string]interface{}{
		"request_id":    dep.Hex(),
		"requester":     f.user.String(),
		"erc20_address": testAsset,
		"amount":        "100",
		"tx_params":     txParams,
	})
	require.Equal(t, http.StatusOK, w.Code, out)
	w, out = f.do(http.MethodPost, "/api/v1/deposits/"+dep.Hex()+"/claim", f.signed(dep, borsh.EncodeBool(true)))
	require.Equal(t, http.StatusOK, w.Code, out)

	id := f.withdrawID(60, 2)
	params := map[string]interface{}{}
	for k, v := range txParams {
		params[k] = v
	}
	params["nonce"] = 2
	body := func(sig []byte) map[string]interface{} {
		b := map[string]interface{}{
			"request_id":        id.Hex(),
			"requester":         f.user.String(),
			"erc20_address":     testAsset,
			"amount":            "60",
			"recipient_address": testRecipient,
			"tx_params":         params,
		}
		if sig != nil {
			b["owner_signature"] = hex.EncodeToString(sig)
		}
		return b
	}

	// 缺少签名
	w, out = f.do(http.MethodPost, "/api/v1/withdrawals", body(nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(errno.ErrBind.Code), out["code"])

	// 非所有者签名
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 0x66
	thief := ed25519.NewKeyFromSeed(seed)
	w, out = f.do(http.MethodPost, "/api/v1/withdrawals", body(ed25519.Sign(thief, authority.WithdrawMessage(id))))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, float64(errno.ErrUnauthorized.Code), out["code"])

	w, out = f.do(http.MethodGet, "/api/v1/balances/"+f.user.String()+"/"+testAsset, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", out["data"].(map[string]interface{})["amount"])

	w, out = f.do(http.MethodPost, "/api/v1/withdrawals", body(ed25519.Sign(f.owner, authority.WithdrawMessage(id))))
	require.Equal(t, http.StatusOK, w.Code, out)
	assert.Equal(t, id.Hex(), out["data"].(map[string]interface{})["request_id"])

	w, out = f.do(http.MethodGet, "/api/v1/balances/"+f.user.String()+"/"+testAsset, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "40", out["data"].(map[string]interface{})["amount"])
}
