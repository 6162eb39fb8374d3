package util

import (
	"log"
	"time"
)

// Итоги попыток входа — нужны безопасникам, не логике
const (
	AuditLoginSuccess  = "login_success"
	AuditLoginFailed   = "login_failed"
	AuditLoginLocked   = "login_locked_account"
	AuditAccountLocked = "account_locked"
	AuditLogout        = "logout"
	AuditTokenRefresh  = "token_refresh"
	AuditPasswordReset = "password_reset_request"
	AuditPasswordsSet  = "password_change"
)

// AuditAuth пишет запись аудита о событии аутентификации.
// Каждая попытка входа (успех/провал/блокировка) обязана оставить запись
func AuditAuth(outcome, identity, ip string) {
	log.Printf("[audit] outcome=%s identity=%s ip=%s at=%s",
		outcome, identity, ip, time.Now().UTC().Format(time.RFC3339))
}
