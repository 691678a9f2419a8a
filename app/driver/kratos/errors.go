package kratos

import (
	"encoding/json"
	"errors"
	"fmt"

	kratosclient "github.com/ory/kratos-client-go"

	"modelhub/app/domain"
)

// Flow operations, used to pick the right fallback code when Kratos
// returns a message we do not recognize.
const (
	opLogin        = "login"
	opRegistration = "registration"
	opFederated    = "federated_login"
	opRecovery     = "recovery"
	opSettings     = "settings"
	opLogout       = "logout"
	opWhoAmI       = "whoami"
)

// Kratos UI message IDs. The self-service flows report validation
// failures as numbered messages inside the returned flow.
const (
	msgInvalidCredentials    = 4000006
	msgAccountExists         = 4000007
	msgPasswordTooSimilar    = 4000031
	msgPasswordTooShort      = 4000032
	msgPasswordTooLong       = 4000033
	msgPasswordBreached      = 4000034
	msgInvalidFormat         = 4000001
	msgMissingProperty       = 4000002
	msgSelfServiceFlowCancel = 1010003
)

// flowErrorBody is the subset of a failed flow response we inspect:
// either a flow with UI messages, or a generic error envelope.
type flowErrorBody struct {
	UI struct {
		Messages []uiMessage `json:"messages"`
		Nodes    []struct {
			Messages []uiMessage `json:"messages"`
		} `json:"nodes"`
	} `json:"ui"`
	Error struct {
		ID      string `json:"id"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RedirectBrowserTo string `json:"redirect_browser_to"`
}

type uiMessage struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}

// mapFlowError converts a Kratos client error into a domain AuthError.
func mapFlowError(err error, op string) error {
	if err == nil {
		return nil
	}

	body, ok := openAPIBody(err)
	if !ok {
		return domain.NewAuthError(domain.CodeProviderError,
			fmt.Sprintf("identity provider unreachable during %s", op), err)
	}

	var parsed flowErrorBody
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return domain.NewAuthError(domain.CodeProviderError,
			fmt.Sprintf("unreadable identity provider response during %s", op), err)
	}

	for _, msg := range collectMessages(&parsed) {
		if code, message, matched := classifyMessage(msg); matched {
			return domain.NewAuthError(code, message, err)
		}
	}

	if parsed.Error.ID == "session_aborted" || parsed.Error.ID == "self_service_flow_cancelled" {
		return domain.NewAuthError(domain.CodeConsentAborted, "sign-in cancelled", err)
	}

	return domain.NewAuthError(fallbackCode(op),
		fmt.Sprintf("%s failed", op), err)
}

func collectMessages(parsed *flowErrorBody) []uiMessage {
	messages := parsed.UI.Messages
	for _, node := range parsed.UI.Nodes {
		messages = append(messages, node.Messages...)
	}
	return messages
}

func classifyMessage(msg uiMessage) (code, message string, matched bool) {
	switch msg.ID {
	case msgInvalidCredentials:
		return domain.CodeInvalidCredentials, "invalid credentials", true
	case msgAccountExists:
		return domain.CodeEmailInUse, "an account with this email already exists", true
	case msgPasswordTooSimilar, msgPasswordTooShort, msgPasswordTooLong, msgPasswordBreached:
		return domain.CodeWeakPassword, "password does not meet the policy", true
	case msgInvalidFormat, msgMissingProperty:
		return domain.CodeInvalidEmail, "invalid email", true
	case msgSelfServiceFlowCancel:
		return domain.CodeConsentAborted, "sign-in cancelled", true
	default:
		return "", "", false
	}
}

func fallbackCode(op string) string {
	switch op {
	case opLogin:
		return domain.CodeInvalidCredentials
	case opRegistration:
		return domain.CodeInvalidEmail
	case opFederated:
		return domain.CodeProviderError
	default:
		return domain.CodeProviderError
	}
}

// browserRedirectFrom extracts the consent URL from a
// browser-location-change response, which Kratos delivers as an error.
func browserRedirectFrom(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	body, ok := openAPIBody(err)
	if !ok {
		return "", false
	}

	var parsed flowErrorBody
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return "", false
	}

	if parsed.RedirectBrowserTo != "" {
		return parsed.RedirectBrowserTo, true
	}
	return "", false
}

func openAPIBody(err error) ([]byte, bool) {
	var openAPIErr *kratosclient.GenericOpenAPIError
	if !errors.As(err, &openAPIErr) {
		return nil, false
	}
	body := openAPIErr.Body()
	if len(body) == 0 {
		return nil, false
	}
	return body, true
}
