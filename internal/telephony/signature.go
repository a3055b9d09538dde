package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
)

// SignatureHeader is the header Twilio sets on every webhook request.
const SignatureHeader = "X-Twilio-Signature"

// ComputeSignature implements Twilio's request signing scheme: the full URL
// with the POST parameter names and values appended in lexicographic order,
// HMAC-SHA1 with the account auth token, base64 encoded.
func ComputeSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := fullURL
	for _, k := range keys {
		for _, v := range params[k] {
			payload += k + v
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks the X-Twilio-Signature header of an already-parsed
// form request against the auth token. fullURL must be the public URL Twilio
// was given, including scheme and host; proxies often rewrite these, so the
// caller reconstructs it from config rather than from the request.
func ValidateSignature(authToken, fullURL string, r *http.Request) bool {
	got := r.Header.Get(SignatureHeader)
	if got == "" {
		return false
	}
	want := ComputeSignature(authToken, fullURL, r.PostForm)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
