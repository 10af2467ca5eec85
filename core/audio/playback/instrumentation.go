package playback

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ttschat/core/audio/playback"

var logger = otelslog.NewLogger(scopeName)
