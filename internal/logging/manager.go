package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Component подсистема движка со своим логгером и файлом логов
type Component int

const (
	World Component = iota
	Storage
	Render
	API
	componentCount
)

var componentNames = [componentCount]string{"world", "storage", "render", "api"}

func (c Component) String() string {
	if c < 0 || c >= componentCount {
		return "unknown"
	}
	return componentNames[c]
}

// ParseComponent находит подсистему по имени из конфига
func ParseComponent(name string) (Component, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range componentNames {
		if n == name {
			return Component(c), true
		}
	}
	return 0, false
}

// ComponentTable фиксированная таблица логгеров подсистем. Логгер создается
// при первом обращении с уровнем из таблицы, Configure меняет уровни и уже
// созданных логгеров.
type ComponentTable struct {
	mu      sync.Mutex
	levels  [componentCount]LogLevel
	loggers [componentCount]*Logger
}

// NewComponentTable создает таблицу, где у всех подсистем уровень level
func NewComponentTable(level LogLevel) *ComponentTable {
	t := &ComponentTable{}
	for c := range t.levels {
		t.levels[c] = level
	}
	return t
}

// Configure задает общий уровень и переопределения по имени подсистемы.
// Неизвестные имена не прерывают настройку и возвращаются одной ошибкой.
func (t *ComponentTable) Configure(level string, overrides map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	base := ParseLevel(level)
	for c := range t.levels {
		t.levels[c] = base
	}

	var errs []error
	for name, lvl := range overrides {
		c, ok := ParseComponent(name)
		if !ok {
			errs = append(errs, fmt.Errorf("неизвестный компонент логирования %q", name))
			continue
		}
		t.levels[c] = ParseLevel(lvl)
	}

	for c, l := range t.loggers {
		if l != nil {
			l.SetLevels(t.levels[c], fileLevel(t.levels[c]))
		}
	}
	return errors.Join(errs...)
}

// Level возвращает настроенный уровень подсистемы
func (t *ComponentTable) Level(c Component) LogLevel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.levels[c]
}

// Logger возвращает логгер подсистемы. Если файл логов открыть не удалось,
// подсистема пишет только в stdout.
func (t *ComponentTable) Logger(c Component) *Logger {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l := t.loggers[c]; l != nil {
		return l
	}
	level := t.levels[c]
	l, err := NewLogger(c.String())
	if err != nil {
		current().Warn("логгер %s только в консоль: %v", c, err)
		l = NewWriterLogger(c.String(), os.Stdout, level)
	}
	l.SetLevels(level, fileLevel(level))
	t.loggers[c] = l
	return l
}

// Close закрывает файлы логов всех подсистем. Следующее обращение к
// подсистеме создаст новый логгер.
func (t *ComponentTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for c, l := range t.loggers {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("закрытие логгера %s: %w", Component(c), err))
		}
		t.loggers[c] = nil
	}
	return errors.Join(errs...)
}

// fileLevel в файл пишется не меньше отладочных сообщений
func fileLevel(console LogLevel) LogLevel {
	return min(console, DEBUG)
}

var components = NewComponentTable(INFO)

// ConfigureComponents настраивает уровни глобальной таблицы подсистем
func ConfigureComponents(level string, overrides map[string]string) error {
	return components.Configure(level, overrides)
}

// CloseComponents закрывает логгеры глобальной таблицы
func CloseComponents() error {
	return components.Close()
}

func GetWorldLogger() *Logger   { return components.Logger(World) }
func GetStorageLogger() *Logger { return components.Logger(Storage) }
func GetRenderLogger() *Logger  { return components.Logger(Render) }
func GetAPILogger() *Logger     { return components.Logger(API) }
