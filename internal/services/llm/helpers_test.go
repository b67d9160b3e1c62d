package llm

import "github.com/ternarybob/casebot/internal/common"

func newTestConfig() *common.Config {
	return common.NewDefaultConfig()
}
