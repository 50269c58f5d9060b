package domain

import "strings"

// Logical collection names in the document store.
const (
	ColUsers          = "users"
	ColGroups         = "groups"
	ColPublicMessages = "messages"
	ColAppConfig      = "app_config"

	PublicChatMetaID = "public_chat_meta"
)

// GroupMessagesCol returns the child collection holding a group's messages.
func GroupMessagesCol(groupID string) string {
	return ColGroups + "/" + groupID + "/messages"
}

// PrivateMessagesCol returns the collection holding a private pair's messages.
func PrivateMessagesCol(pairKey string) string {
	return "private_chats/" + pairKey + "/messages"
}

// UserConversationsCol returns the owner's conversation pointer collection.
func UserConversationsCol(uid string) string {
	return ColUsers + "/" + uid + "/conversations"
}

// PairKey joins two participant ids in a fixed deterministic order, so both
// participants resolve the same private chat collection regardless of who
// initiates.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "_" + b
}
