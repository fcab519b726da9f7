// Package vnpay builds signed VNPAY payment URLs and verifies the signed
// queries VNPAY sends back on the return URL and the IPN endpoint.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	Version        = "2.1.0"
	CommandPay     = "pay"
	CurrencyVND    = "VND"
	LocaleVN       = "vn"
	OrderTypeOther = "other"

	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"

	// 成功時のレスポンスコード
	ResponseCodeSuccess = "00"

	// yyyyMMddHHmmss
	dateLayout = "20060102150405"
)

var (
	ErrInvalidSignature = errors.New("vnpay: invalid signature")
	ErrMalformedResult  = errors.New("vnpay: malformed result")
	ErrInvalidRequest   = errors.New("vnpay: invalid payment request")
	ErrNotConfigured    = errors.New("vnpay: hash secret is not configured")
)

// VNPAYはGMT+7で日時を解釈する
var vietnamTZ = time.FixedZone("ICT", 7*60*60)

type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	// 空なら送らない（VNPAY側で銀行を選ばせる）
	BankCode string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

type PaymentRequest struct {
	TxnRef    string
	Amount    int64 // VND
	OrderInfo string
	IPAddr    string
	CreatedAt time.Time
}

type Result struct {
	TxnRef        string
	Amount        int64 // VND（vnp_Amount / 100）
	ResponseCode  string
	TransactionNo string
	BankCode      string
}

func (r Result) Success() bool {
	return r.ResponseCode == ResponseCodeSuccess
}

// 署名付きの決済URLを作る
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if c.cfg.HashSecret == "" {
		return "", ErrNotConfigured
	}
	if req.TxnRef == "" || req.Amount <= 0 {
		return "", ErrInvalidRequest
	}

	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", CommandPay)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Locale", LocaleVN)
	params.Set("vnp_CurrCode", CurrencyVND)
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", OrderTypeOther)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_ReturnUrl", c.cfg.ReturnURL)
	params.Set("vnp_IpAddr", req.IPAddr)
	params.Set("vnp_CreateDate", req.CreatedAt.In(vietnamTZ).Format(dateLayout))
	if c.cfg.BankCode != "" {
		params.Set("vnp_BankCode", c.cfg.BankCode)
	}

	data := canonicalQuery(params)
	return c.cfg.PayURL + "?" + data + "&" + ParamSecureHash + "=" + c.sign(data), nil
}

// ハッシュ項目を除いたパラメータの署名（hex）
func (c *Client) Sign(params url.Values) string {
	return c.sign(canonicalQuery(withoutHash(params)))
}

// 戻りURL/IPNのクエリを検証する。署名が合わなければErrInvalidSignature。
// 秘密鍵が空のときは誰でも署名できるので全て拒否する
func (c *Client) Verify(query url.Values) (Result, error) {
	if c.cfg.HashSecret == "" {
		return Result{}, ErrInvalidSignature
	}
	received, err := hex.DecodeString(query.Get(ParamSecureHash))
	if err != nil || len(received) == 0 {
		return Result{}, ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(canonicalQuery(withoutHash(query))))
	if !hmac.Equal(mac.Sum(nil), received) {
		return Result{}, ErrInvalidSignature
	}

	res := Result{
		TxnRef:        query.Get("vnp_TxnRef"),
		ResponseCode:  query.Get("vnp_ResponseCode"),
		TransactionNo: query.Get("vnp_TransactionNo"),
		BankCode:      query.Get("vnp_BankCode"),
	}
	if res.TxnRef == "" || res.ResponseCode == "" {
		return Result{}, ErrMalformedResult
	}

	raw, err := strconv.ParseInt(query.Get("vnp_Amount"), 10, 64)
	if err != nil || raw < 0 {
		return Result{}, ErrMalformedResult
	}
	res.Amount = raw / 100

	return res, nil
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func withoutHash(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for k, v := range params {
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		out[k] = v
	}
	return out
}

// キー昇順で key=value を & で連結する。値はVNPAYと同じくフォームエンコード
// （空白は+）。同じキーが複数あれば最初の値だけ使う
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}
