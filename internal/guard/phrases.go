package guard

// DefaultGoodbyePhrases is the built-in, locale-mixed goodbye-phrase set.
// The spec fixes only that a detector must exist and block correctly; the
// vocabulary itself is configurable (see config.GuardConfig.GoodbyePhrasesPath).
var DefaultGoodbyePhrases = []string{
	"goodbye",
	"bye for now",
	"see you later",
	"see you tomorrow",
	"talk to you later",
	"i'm done for now",
	"that's all for today",
	"signing off",
	"until next time",
	"bis morgen",
	"bis bald",
	"auf wiedersehen",
	"tschuss",
	"gute nacht",
}
