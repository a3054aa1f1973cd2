package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"store-backend/internal/config"
)

const dateLayout = "20060102150405"

// Client builds and verifies VNPay payment URLs. Parameters are signed with
// HMAC-SHA512 over the sorted, URL-encoded query string; amounts are sent
// in minor units (×100).
type Client struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func NewClient(cfg config.VNPayConfig) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

// BuildPaymentURL returns the signed redirect URL for an order.
func (c *Client) BuildPaymentURL(orderID string, amount float64, clientIP string) (string, error) {
	if c.cfg.TmnCode == "" || c.cfg.HashSecret == "" {
		return "", fmt.Errorf("vnpay is not configured")
	}

	createdAt := c.now()
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Amount":     fmt.Sprintf("%d", int64(amount*100)),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     orderID,
		"vnp_OrderInfo":  "Payment for order " + orderID,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": createdAt.Format(dateLayout),
		"vnp_ExpireDate": createdAt.Add(15 * time.Minute).Format(dateLayout),
	}

	query := canonicalQuery(params)
	signature := c.sign(query)
	return c.cfg.BaseURL + "?" + query + "&vnp_SecureHash=" + signature, nil
}

// VerifySignature checks the vnp_SecureHash of a callback against the other
// vnp_* parameters.
func (c *Client) VerifySignature(params url.Values) bool {
	received := params.Get("vnp_SecureHash")
	if received == "" {
		return false
	}

	filtered := make(map[string]string)
	for key := range params {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if strings.HasPrefix(key, "vnp_") {
			filtered[key] = params.Get(key)
		}
	}

	expected := c.sign(canonicalQuery(filtered))
	return hmac.Equal([]byte(strings.ToLower(received)), []byte(expected))
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery encodes params sorted by key, the exact form VNPay signs.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[key]))
	}
	return sb.String()
}
