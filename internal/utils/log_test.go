// Copyright api7.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	assert.Nil(t, err, "checking error")
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "checking debug enabled")

	logger, err = NewLogger("error")
	assert.Nil(t, err, "checking error")
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel), "checking warn disabled")

	_, err = NewLogger("verbose")
	assert.NotNil(t, err, "checking bad level")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(), "checking default logger")
	nop := zap.NewNop()
	SetLogger(nop)
	assert.Equal(t, nop, GetLogger(), "checking replaced logger")
}

func TestGetBootLogger(t *testing.T) {
	logger := GetBootLogger()
	assert.NotNil(t, logger, "checking boot logger")
	assert.Equal(t, logger, GetBootLogger(), "checking boot logger is reused")
}
