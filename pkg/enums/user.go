package enums

import (
	"fmt"
	"strings"
)

// UserRole is the account-level role carried in access tokens.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

var validUserRoles = []UserRole{UserRoleUser, UserRoleAdmin}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == strings.ToLower(strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// OAuthProvider records how an account was created.
type OAuthProvider string

const (
	OAuthProviderLocal    OAuthProvider = "local"
	OAuthProviderGoogle   OAuthProvider = "google"
	OAuthProviderFacebook OAuthProvider = "facebook"
)

var validOAuthProviders = []OAuthProvider{OAuthProviderLocal, OAuthProviderGoogle, OAuthProviderFacebook}

func (p OAuthProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known provider.
func (p OAuthProvider) IsValid() bool {
	for _, candidate := range validOAuthProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseOAuthProvider converts a route segment into an external provider.
// The local provider is not accepted because it has no consent flow.
func ParseOAuthProvider(value string) (OAuthProvider, error) {
	p := OAuthProvider(strings.ToLower(strings.TrimSpace(value)))
	if p == OAuthProviderGoogle || p == OAuthProviderFacebook {
		return p, nil
	}
	return "", fmt.Errorf("unsupported oauth provider %q", value)
}

// Language is the user's interface language.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageFrench  Language = "Français"
	LanguageArabic  Language = "العربية"
)

var validLanguages = []Language{LanguageEnglish, LanguageFrench, LanguageArabic}

func (l Language) String() string {
	return string(l)
}

// IsValid reports whether the value is a supported language.
func (l Language) IsValid() bool {
	for _, candidate := range validLanguages {
		if candidate == l {
			return true
		}
	}
	return false
}
