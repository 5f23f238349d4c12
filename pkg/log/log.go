/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	LogPrefix     = "[go-dsu] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levelMapping = map[string]LogLevel{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

type Logger struct {
	level LogLevel
	*log.Logger
}

var logger = &Logger{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

// ErrWrongLevel returned when the log level is not one of the known levels
type ErrWrongLevel struct {
	Level string
}

func (e ErrWrongLevel) Error() string {
	return fmt.Sprintf("Wrong log level %q. %s", e.Level, HelpLevels)
}

func ParseLevel(strLevel string) (LogLevel, error) {
	level, ok := levelMapping[strings.ToLower(strLevel)]
	if !ok {
		return ErrorLevel, ErrWrongLevel{Level: strLevel}
	}
	return level, nil
}

func SetLevel(strLevel string) error {
	level, err := ParseLevel(strLevel)
	if err != nil {
		return err
	}
	logger.level = level
	return nil
}

func Init(out io.Writer, strLevel string) {
	logger.SetOutput(out)
	if err := SetLevel(strLevel); err != nil {
		panic(err)
	}
}

// Writer returns the destination of the log, e.g. for HTTP access logs
func Writer() io.Writer {
	return logger.Writer()
}

func Error(format string, v ...interface{}) {
	if logger.level >= ErrorLevel {
		logger.Println(fmt.Sprintf(ErrorPrefix+format, v...))
	}
}

func Warning(format string, v ...interface{}) {
	if logger.level >= WarningLevel {
		logger.Println(fmt.Sprintf(WarningPrefix+format, v...))
	}
}

func Info(format string, v ...interface{}) {
	if logger.level >= InfoLevel {
		logger.Println(fmt.Sprintf(InfoPrefix+format, v...))
	}
}

func Debug(format string, v ...interface{}) {
	if logger.level >= DebugLevel {
		logger.Println(fmt.Sprintf(DebugPrefix+format, v...))
	}
}
