package botid

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/astralhq/chatgate/pkg/types"
	"github.com/avct/uasurfer"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Classifier produces the {human, verified bot, unverified bot} verdict the
// admission controller consumes.
//
//go:generate mockery --name=Classifier --dir=. --output=../../mocks --filename=bot_classifier_mock.go --case=underscore --with-expecter
type Classifier interface {
	Classify(ctx context.Context, userAgent, clientData string) types.BotVerdict
}

// verifiedBots are crawlers allowed through admission: they identify
// themselves honestly and never hammer the generation path.
var verifiedBots = []string{
	"googlebot",
	"bingbot",
	"yandexbot",
	"baiduspider",
	"applebot",
	"duckduckbot",
}

var suspiciousUASubstrings = []string{
	"bot", "crawl", "spider", "curl", "wget", "python-requests", "go-http-client",
}

type classifier struct {
	logger    *logrus.Logger
	threshold float64
}

// NewClassifier builds the default classifier. threshold is the client-data
// suspicion score at or above which the caller counts as a bot.
func NewClassifier(logger *logrus.Logger, threshold float64) Classifier {
	return &classifier{logger: logger, threshold: threshold}
}

func (c *classifier) Classify(ctx context.Context, userAgent, clientData string) types.BotVerdict {
	lowered := strings.ToLower(userAgent)
	for _, name := range verifiedBots {
		if strings.Contains(lowered, name) {
			return types.BotVerdict{IsBot: true, IsVerifiedBot: true}
		}
	}

	ua := uasurfer.Parse(userAgent)
	if ua.IsBot() {
		return types.BotVerdict{IsBot: true}
	}

	if userAgent == "" || containsAny(lowered, suspiciousUASubstrings) {
		return types.BotVerdict{IsBot: true}
	}

	if clientData != "" {
		score, err := c.scoreClientData(clientData)
		if err != nil {
			c.logger.WithError(err).Debug("failed to decode bot client data")
			return types.BotVerdict{IsBot: true}
		}
		c.logger.WithField("score", score).Debug("calculated bot score")
		if score >= c.threshold {
			return types.BotVerdict{IsBot: true}
		}
	}

	return types.BotVerdict{}
}

// clientSignals is the shape of the browser telemetry blob. Sub-sections
// are pointers so an absent section scores nothing, as opposed to scoring
// like a section whose checks all came back negative.
type clientSignals struct {
	Automation  *automationSignals  `mapstructure:"automationDetection"`
	Persistence *persistenceSignals `mapstructure:"persistenceChecker"`
	Environment *environmentSignals `mapstructure:"environment"`
}

type automationSignals struct {
	Webdriver            bool                   `mapstructure:"webdriver"`
	ChromeHeadless       bool                   `mapstructure:"chromeHeadless"`
	AutomationProperties map[string]interface{} `mapstructure:"automationProperties"`
}

type persistenceSignals struct {
	CookiesEnabled *bool `mapstructure:"cookiesEnabled"`
	LocalStorage   *bool `mapstructure:"localStorage"`
}

type environmentSignals struct {
	Languages []string `mapstructure:"languages"`
}

// scoreClientData decodes the zlib-compressed, base64-encoded browser
// telemetry blob and scores automation signals in [0,1].
func (c *classifier) scoreClientData(encoded string) (float64, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, err
	}
	reader, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(decompressed, &data); err != nil {
		return 0, err
	}
	var signals clientSignals
	if err := mapstructure.Decode(data, &signals); err != nil {
		return 0, err
	}
	return scoreSignals(&signals), nil
}

func scoreSignals(signals *clientSignals) float64 {
	suspicious := 0
	const maxFactors = 12

	if automation := signals.Automation; automation != nil {
		if automation.Webdriver {
			suspicious += 3
		}
		if automation.ChromeHeadless {
			suspicious += 6
		}
		for _, v := range automation.AutomationProperties {
			if b, ok := v.(bool); ok && b {
				suspicious++
			}
		}
	}

	if persistence := signals.Persistence; persistence != nil {
		if persistence.CookiesEnabled != nil && !*persistence.CookiesEnabled {
			suspicious++
		}
		if persistence.LocalStorage != nil && !*persistence.LocalStorage {
			suspicious++
		}
	}

	if env := signals.Environment; env != nil && len(env.Languages) == 0 {
		suspicious++
	}

	score := float64(suspicious) / float64(maxFactors)
	if score > 1 {
		score = 1
	}
	return score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
