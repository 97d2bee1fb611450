package types

// CookieRecord mirrors the webdriver cookie shape so files written here can be
// consumed by the existing downstream fetchers.
type CookieRecord struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expiry   int64  `json:"expiry,omitempty"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	SameSite string `json:"sameSite,omitempty"`
}
