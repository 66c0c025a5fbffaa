// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	botSignatureName   = "bot_signature_detected"
	botSignatureWeight = 0.25
)

// botTokens identify automation frameworks outright.
var botTokens = []string{
	"HeadlessChrome", "PhantomJS", "Selenium", "WebDriver", "Puppeteer",
	"Playwright", "Nightmare", "CasperJS", "SlimerJS", "Zombie", "HtmlUnit",
}

// suspiciousPatterns are weaker hints of non-interactive clients.
var suspiciousPatterns = []string{"bot", "crawler", "spider", "scraper", "automation"}

// BotSignatureRule inspects the reported user agent for automation
// framework tokens.
type BotSignatureRule struct{}

func (BotSignatureRule) Name() string { return botSignatureName }

func (BotSignatureRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	device := firstOfType(signals, model.SignalDevice)
	if device == nil {
		return nil, nil
	}
	ua, ok := payload.New(device.Payload).String("userAgent")
	if !ok || ua == "" {
		return nil, nil
	}
	lower := strings.ToLower(ua)

	for _, token := range botTokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return &model.RiskFactor{
				Name:        botSignatureName,
				Score:       0.95,
				Weight:      botSignatureWeight,
				Description: fmt.Sprintf("Bot signature in user agent: %s", token),
			}, nil
		}
	}

	var matched []string
	for _, pat := range suspiciousPatterns {
		if strings.Contains(lower, pat) {
			matched = append(matched, pat)
		}
	}
	if len(matched) > 0 {
		return &model.RiskFactor{
			Name:        botSignatureName,
			Score:       0.7,
			Weight:      botSignatureWeight,
			Description: fmt.Sprintf("Suspicious user agent pattern: %s", strings.Join(matched, ", ")),
		}, nil
	}
	return nil, nil
}
