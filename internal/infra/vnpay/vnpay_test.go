package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(Config{
		TmnCode:    "TESTTMN1",
		HashSecret: "SECRETKEY0123456789",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/wallet/vnpay_return",
		BankCode:   "NCB",
	})
}

// ゲートウェイから戻ってくるクエリを作る
func signedReturnQuery(t *testing.T, c *Client, code string) url.Values {
	t.Helper()

	q := url.Values{}
	q.Set("vnp_TmnCode", "TESTTMN1")
	q.Set("vnp_TxnRef", "20260101120000abcd1234")
	q.Set("vnp_Amount", "10000000")
	q.Set("vnp_OrderInfo", "Nap tien vi dien tu")
	q.Set("vnp_ResponseCode", code)
	q.Set("vnp_TransactionNo", "14012345")
	q.Set("vnp_BankCode", "NCB")
	q.Set("vnp_PayDate", "20260101120500")
	q.Set(ParamSecureHash, c.Sign(q))
	q.Set(ParamSecureHashType, "HmacSHA512")
	return q
}

func TestSign_DeterministicAndOrderIndependent(t *testing.T) {
	c := newTestClient()

	a := url.Values{}
	a.Set("vnp_TxnRef", "1")
	a.Set("vnp_Amount", "100")
	a.Set("vnp_OrderInfo", "Nap tien vi dien tu")

	b := url.Values{}
	b.Set("vnp_OrderInfo", "Nap tien vi dien tu")
	b.Set("vnp_Amount", "100")
	b.Set("vnp_TxnRef", "1")

	for i := 0; i < 20; i++ {
		assert.Equal(t, c.Sign(a), c.Sign(b))
	}

	// ハッシュ項目は署名対象外
	withHash := url.Values{}
	for k, v := range a {
		withHash[k] = v
	}
	withHash.Set(ParamSecureHash, "deadbeef")
	withHash.Set(ParamSecureHashType, "HmacSHA512")
	assert.Equal(t, c.Sign(a), c.Sign(withHash))
}

func TestSign_DifferentSecretDifferentHash(t *testing.T) {
	q := url.Values{}
	q.Set("vnp_TxnRef", "1")

	other := NewClient(Config{HashSecret: "another"})
	assert.NotEqual(t, newTestClient().Sign(q), other.Sign(q))
}

func TestBuildPaymentURL(t *testing.T) {
	c := newTestClient()
	created := time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)

	raw, err := c.BuildPaymentURL(PaymentRequest{
		TxnRef:    "ref001",
		Amount:    100000,
		OrderInfo: "Nap tien vi dien tu",
		IPAddr:    "127.0.0.1",
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "TESTTMN1", q.Get("vnp_TmnCode"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "vn", q.Get("vnp_Locale"))
	assert.Equal(t, "other", q.Get("vnp_OrderType"))
	assert.Equal(t, "10000000", q.Get("vnp_Amount"))
	assert.Equal(t, "Nap tien vi dien tu", q.Get("vnp_OrderInfo"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	// UTC 05:00 は GMT+7 で 12:00
	assert.Equal(t, "20260101120000", q.Get("vnp_CreateDate"))

	// URLの署名はそのまま検証できる
	assert.Equal(t, c.Sign(q), q.Get(ParamSecureHash))
	assert.Contains(t, raw, "vnp_OrderInfo=Nap+tien+vi+dien+tu")
}

func TestBuildPaymentURL_InvalidRequest(t *testing.T) {
	c := newTestClient()

	_, err := c.BuildPaymentURL(PaymentRequest{TxnRef: "", Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.BuildPaymentURL(PaymentRequest{TxnRef: "x", Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVerify_OK(t *testing.T) {
	c := newTestClient()
	q := signedReturnQuery(t, c, "00")

	res, err := c.Verify(q)
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "20260101120000abcd1234", res.TxnRef)
	assert.Equal(t, int64(100000), res.Amount)
	assert.Equal(t, "14012345", res.TransactionNo)
	assert.Equal(t, "NCB", res.BankCode)
}

func TestVerify_FailureCode(t *testing.T) {
	c := newTestClient()
	q := signedReturnQuery(t, c, "24")

	res, err := c.Verify(q)
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, "24", res.ResponseCode)
}

func TestVerify_UppercaseHashAccepted(t *testing.T) {
	c := newTestClient()
	q := signedReturnQuery(t, c, "00")
	q.Set(ParamSecureHash, strings.ToUpper(q.Get(ParamSecureHash)))

	_, err := c.Verify(q)
	assert.NoError(t, err)
}

// どのパラメータの1文字を変えても検証に失敗する
func TestVerify_TamperAnyCharacter(t *testing.T) {
	c := newTestClient()
	base := signedReturnQuery(t, c, "00")

	for key := range base {
		if key == ParamSecureHashType {
			continue
		}
		value := base.Get(key)
		for i := 0; i < len(value); i++ {
			tampered := url.Values{}
			for k, v := range base {
				tampered[k] = append([]string(nil), v...)
			}
			b := []byte(value)
			if b[i] == 'A' {
				b[i] = 'B'
			} else {
				b[i] = 'A'
			}
			tampered.Set(key, string(b))

			_, err := c.Verify(tampered)
			assert.ErrorIs(t, err, ErrInvalidSignature, "key=%s pos=%d", key, i)
		}
	}
}

func TestVerify_AddedParameterFails(t *testing.T) {
	c := newTestClient()
	q := signedReturnQuery(t, c, "00")
	q.Set("vnp_Extra", "1")

	_, err := c.Verify(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_MissingOrGarbageHash(t *testing.T) {
	c := newTestClient()

	q := signedReturnQuery(t, c, "00")
	q.Del(ParamSecureHash)
	_, err := c.Verify(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	q = signedReturnQuery(t, c, "00")
	q.Set(ParamSecureHash, "not-hex")
	_, err = c.Verify(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_MalformedAmount(t *testing.T) {
	c := newTestClient()

	q := url.Values{}
	q.Set("vnp_TxnRef", "ref")
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_Amount", "abc")
	q.Set(ParamSecureHash, c.Sign(q))

	_, err := c.Verify(q)
	assert.ErrorIs(t, err, ErrMalformedResult)
}

// 秘密鍵なしでは空鍵の署名でも通さない
func TestClient_EmptySecretRejectsEverything(t *testing.T) {
	c := NewClient(Config{TmnCode: "TESTTMN1", PayURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"})

	q := signedReturnQuery(t, c, "00")
	_, err := c.Verify(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = c.BuildPaymentURL(PaymentRequest{TxnRef: "x", Amount: 100, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
