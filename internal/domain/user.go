package domain

import "time"

// Identity is the authenticated caller as seen by the chat core. It is
// resolved from the access token, not from the profile document.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Anonymous   bool   `json:"isAnonymous"`
}

// Profile is the chat-visible user document stored under users/{uid}.
type Profile struct {
	UID            string     `json:"uid"`
	DisplayName    string     `json:"displayName"`
	PhotoURL       string     `json:"photoURL"`
	Email          string     `json:"email,omitempty"`
	IsAdmin        bool       `json:"isAdmin"`
	IsMuted        bool       `json:"isMuted"`
	BlockedUserIDs []string   `json:"blockedUserIds,omitempty"`
	CleanSince     *time.Time `json:"cleanSince,omitempty"`
}

// HasBlocked reports whether the profile owner has blocked uid.
// Blocking is owner-local and not mutual.
func (p Profile) HasBlocked(uid string) bool {
	for _, id := range p.BlockedUserIDs {
		if id == uid {
			return true
		}
	}
	return false
}
