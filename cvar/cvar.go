// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvar holds named string variables with change callbacks.
package cvar

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type flag uint64

const (
	NONE flag = 0
	// ARCHIVE variables are written back to the config file.
	ARCHIVE flag = 1
	ROM     flag = 1 << 6
)

// Off is the value of an unset integer variable.
const Off = "off"

var ErrUnknown = errors.New("unknown variable")

type CallbackFunc func(cv *Cvar)

type Cvar struct {
	archive bool
	rom     bool
	name    string

	mu sync.RWMutex
	// stringValue is the truth, value the derived one
	stringValue  string
	value        float32
	defaultValue string
	callbacks    []CallbackFunc
}

func (cv *Cvar) Archive() bool {
	return cv.archive
}

// AddCallback runs cb after every change of the value.
func (cv *Cvar) AddCallback(cb CallbackFunc) {
	cv.mu.Lock()
	cv.callbacks = append(cv.callbacks, cb)
	cv.mu.Unlock()
}

func (cv *Cvar) SetByString(s string) {
	if cv.rom {
		return
	}
	cv.mu.Lock()
	if cv.stringValue == s {
		cv.mu.Unlock()
		return
	}
	cv.stringValue = s
	pf, _ := strconv.ParseFloat(s, 32)
	cv.value = float32(pf)
	cbs := cv.callbacks
	cv.mu.Unlock()
	for _, cb := range cbs {
		cb(cv)
	}
}

func (cv *Cvar) Reset() {
	cv.SetByString(cv.defaultValue)
}

func (cv *Cvar) String() string {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.stringValue
}

func (cv *Cvar) Name() string {
	return cv.name
}

func (cv *Cvar) Value() float32 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.value
}

// Int returns the integer value, or -1 if the variable is off or not a
// number.
func (cv *Cvar) Int() int {
	s := cv.String()
	if strings.EqualFold(s, Off) {
		return -1
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return v
}

func (cv *Cvar) SetInt(v int) {
	if v < 0 {
		cv.SetByString(Off)
		return
	}
	cv.SetByString(strconv.Itoa(v))
}

func (cv *Cvar) SetBool(b bool) {
	if b {
		cv.SetByString("1")
	} else {
		cv.SetByString("0")
	}
}

func (cv *Cvar) Bool() bool {
	s := cv.String()
	return s != "0" && s != "" && !strings.EqualFold(s, "false")
}

// Registry owns a set of variables.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Cvar
}

func New() *Registry {
	return &Registry{byName: make(map[string]*Cvar)}
}

// All returns the variables sorted by name.
func (r *Registry) All() []*Cvar {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Cvar, 0, len(r.byName))
	for _, cv := range r.byName {
		all = append(all, cv)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })
	return all
}

func (r *Registry) Get(name string) (*Cvar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.byName[name]
	return cv, ok
}

func (r *Registry) Register(name, value string, flags flag) (*Cvar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return nil, errors.Errorf("can't register variable %s, already defined", name)
	}
	cv := &Cvar{
		name:         name,
		defaultValue: value,
		archive:      flags&ARCHIVE != 0,
	}
	cv.SetByString(value)
	cv.rom = flags&ROM != 0
	r.byName[name] = cv
	return cv, nil
}

func (r *Registry) MustRegister(n, v string, flag flag) *Cvar {
	cv, err := r.Register(n, v, flag)
	if err != nil {
		panic(err)
	}
	return cv
}

// Set changes a registered variable by name.
func (r *Registry) Set(name, value string) error {
	cv, ok := r.Get(name)
	if !ok {
		return errors.Wrap(ErrUnknown, name)
	}
	cv.SetByString(value)
	return nil
}

// ResetAll restores every default value.
func (r *Registry) ResetAll() {
	for _, cv := range r.All() {
		cv.Reset()
	}
}

// Values returns the archived variables by name.
func (r *Registry) Values() map[string]string {
	m := make(map[string]string)
	for _, cv := range r.All() {
		if cv.Archive() {
			m[cv.Name()] = cv.String()
		}
	}
	return m
}
