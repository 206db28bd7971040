// Package i18n holds the console's message catalogue and the active locale.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	SystemAbnormality              = "axios.systemAbnormality"
	ConnectionTimedOut             = "axios.connectionTimedOut"
	ReLogin                        = "axios.reLogin"
	InsufficientPermissionsReLogin = "axios.insufficientPermissionsReLogin"
	NetworkRequestNotExist         = "axios.networkRequestNotExist"
	ServiceUnavailable             = "axios.serviceUnavailable"
	RequestParameterError          = "axios.requestParameterError"
	MethodNotAllowed               = "axios.preview"
	ServerInternalError            = "axios.serverInternalError"
	UnknownError                   = "axios.unknownError"

	SureToLogOutExitSystem = "common.sureToLogOutExitSystem"
	Tip                    = "common.tip"
	Confirm                = "common.confirm"
	Cancel                 = "common.cancel"
)

var (
	ChineseSimplified = language.MustParse("zh-CN")
	English           = language.English

	supported = []language.Tag{ChineseSimplified, English}
	matcher   = language.NewMatcher(supported)
)

var messages = map[language.Tag]map[string]string{
	ChineseSimplified: {
		SystemAbnormality:              "系统异常",
		ConnectionTimedOut:             "连接超时",
		ReLogin:                        "登录已失效，请重新登录",
		InsufficientPermissionsReLogin: "权限不足，请重新登录",
		NetworkRequestNotExist:         "网络请求不存在",
		ServiceUnavailable:             "服务不可用",
		RequestParameterError:          "请求参数错误",
		MethodNotAllowed:               "演示环境，不允许操作",
		ServerInternalError:            "服务器内部错误",
		UnknownError:                   "未知错误",
		SureToLogOutExitSystem:         "登录状态已过期，确定退出系统吗？",
		Tip:                            "提示",
		Confirm:                        "确定",
		Cancel:                         "取消",
	},
	English: {
		SystemAbnormality:              "System error",
		ConnectionTimedOut:             "Connection timed out",
		ReLogin:                        "Session expired, please log in again",
		InsufficientPermissionsReLogin: "Insufficient permissions, please log in again",
		NetworkRequestNotExist:         "The requested resource does not exist",
		ServiceUnavailable:             "Service unavailable",
		RequestParameterError:          "Invalid request parameters",
		MethodNotAllowed:               "Operation not allowed in preview mode",
		ServerInternalError:            "Internal server error",
		UnknownError:                   "Unknown error",
		SureToLogOutExitSystem:         "Your session has expired. Log out of the system?",
		Tip:                            "Notice",
		Confirm:                        "Confirm",
		Cancel:                         "Cancel",
	},
}

var (
	catalogOnce sync.Once
	builder     *catalog.Builder
)

func messageCatalog() *catalog.Builder {
	catalogOnce.Do(func() {
		builder = catalog.NewBuilder(catalog.Fallback(ChineseSimplified))
		for tag, msgs := range messages {
			for key, msg := range msgs {
				_ = builder.SetString(tag, key, msg)
			}
		}
	})
	return builder
}

// Match negotiates a requested locale string (BCP 47 or an Accept-Language
// value) against the supported tags.
func Match(requested string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return ChineseSimplified
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Locale is the process-wide active language.
type Locale struct {
	mu      sync.RWMutex
	tag     language.Tag
	printer *message.Printer
}

func NewLocale(initial string) *Locale {
	l := &Locale{}
	l.Set(initial)
	return l
}

// Set switches the active language and returns the tag actually selected.
func (l *Locale) Set(requested string) language.Tag {
	tag := Match(requested)
	p := message.NewPrinter(tag, message.Catalog(messageCatalog()))
	l.mu.Lock()
	l.tag = tag
	l.printer = p
	l.mu.Unlock()
	return tag
}

// String is the value sent as Accept-Language.
func (l *Locale) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tag.String()
}

// T translates key in the active language. Unknown keys come back unchanged.
func (l *Locale) T(key string) string {
	l.mu.RLock()
	p := l.printer
	l.mu.RUnlock()
	return p.Sprintf(key)
}
