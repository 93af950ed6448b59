package goConsole

import (
	"errors"

	"github.com/MrEthical07/goConsole/identity"
)

var (
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrProviderRequired is returned by Build without an identity provider.
	ErrProviderRequired = errors.New("identity provider required")
	// ErrControllerClosed is returned by operations on a closed controller.
	ErrControllerClosed = errors.New("controller closed")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("controller already started")
	// ErrLoginSuperseded is returned by a login that completed after a logout
	// issued while it was in flight. Its session is discarded.
	ErrLoginSuperseded = errors.New("login superseded by logout")
	// ErrMissingCredentials is returned by Login when email or password is empty.
	ErrMissingCredentials = errors.New("email and password required")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrPasswordMismatch is returned by ChangePassword when the confirmation
	// differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrUpdateUnsupported is returned when the identity provider cannot edit
	// users.
	ErrUpdateUnsupported = errors.New("identity provider cannot update users")
)

// UserMessage maps an error from Login, Logout or a profile update to the
// text shown in the form. Unknown errors get a generic message so transport details do not
// leak into the UI.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "Preencha o email e a senha."
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Email ou senha incorretos."
	case errors.Is(err, identity.ErrRateLimited):
		return "Muitas tentativas. Aguarde alguns minutos e tente novamente."
	case errors.Is(err, identity.ErrUnavailable):
		return "Serviço de autenticação indisponível. Verifique a sua ligação."
	case errors.Is(err, identity.ErrSessionExpired):
		return "A sua sessão expirou. Entre novamente."
	case errors.Is(err, ErrPasswordMismatch):
		return "As senhas não coincidem."
	case errors.Is(err, identity.ErrInvalidRequest):
		return "Dados inválidos. A senha deve ter pelo menos 6 caracteres."
	case errors.Is(err, identity.ErrNotSignedIn):
		return "Sessão terminada. Entre novamente."
	case errors.Is(err, ErrUpdateUnsupported):
		return "Este serviço de autenticação não permite alterar o perfil."
	case errors.Is(err, ErrLoginSuperseded):
		return "Sessão terminada."
	case errors.Is(err, ErrControllerClosed):
		return "A consola está a encerrar."
	default:
		return "Não foi possível entrar. Tente novamente."
	}
}
