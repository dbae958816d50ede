package auth

import (
	"strings"

	"github.com/skoobtools/estante/internal/browser"
	"github.com/skoobtools/estante/internal/logger"
)

// fixedStorageKeys are probed in declared order before any enumeration.
var fixedStorageKeys = []string{
	"auth_token",
	"token",
	"jwt",
	"authorization",
	"authToken",
	"accessToken",
	"access_token",
	"skoob_token",
	"skoob_auth",
}

// storageNamespaces in probe order.
var storageNamespaces = []browser.Namespace{
	browser.LocalStorage,
	browser.SessionStorage,
}

// ScanStorage searches the browser's persisted stores for a credential.
// The fixed key list is probed across both namespaces first; only when
// no fixed key yields a validated credential does a second pass
// enumerate every key whose name hints at auth material. Order is fully
// deterministic, and every key probe is fault isolated: a read error
// skips that key, never the scan.
func ScanStorage(s browser.Session) (Credential, bool) {
	for _, ns := range storageNamespaces {
		for _, key := range fixedStorageKeys {
			if cred, ok := probeKey(s, ns, key); ok {
				return cred, true
			}
		}
	}

	for _, ns := range storageNamespaces {
		keys, err := s.StorageKeys(ns)
		if err != nil {
			logger.Debug("failed to enumerate storage keys", "namespace", ns, "error", err)
			continue
		}
		for _, key := range keys {
			if !looksAuthRelated(key) {
				continue
			}
			if cred, ok := probeKey(s, ns, key); ok {
				return cred, true
			}
		}
	}

	return "", false
}

func probeKey(s browser.Session, ns browser.Namespace, key string) (Credential, bool) {
	value, err := s.StorageItem(ns, key)
	if err != nil {
		logger.Debug("failed to read storage key", "namespace", ns, "key", key, "error", err)
		return "", false
	}
	if value == "" {
		return "", false
	}
	cred := Credential(value)
	if !cred.Valid() {
		logger.Debug("storage value is not a usable credential", "namespace", ns, "key", key)
		return "", false
	}
	logger.Info("found credential in browser storage", "namespace", ns, "key", key)
	return cred, true
}

func looksAuthRelated(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "auth") || strings.Contains(lower, "token")
}
