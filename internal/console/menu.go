// Package console - интерактивное текстовое меню управления сервером.
package console

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const menuText = `Server menu:
    0. print menu again
    1. start server
    2. close server
    3. exit`

// Controller - то, чем управляет меню.
type Controller interface {
	Start() error
	Stop() error
	Running() bool

	// Wait блокируется до конца текущего запуска и возвращает фатальную
	// ошибку сервера.
	Wait() error
}

// Menu читает выбор пользователя построчно и вызывает Controller.
type Menu struct {
	ctl Controller
	in  *bufio.Scanner

	mu  sync.Mutex // out пишут и цикл меню, и наблюдатель за сервером
	out io.Writer

	header *color.Color
	ok     *color.Color
	warn   *color.Color
	fail   *color.Color
}

type Option func(*Menu)

// WithoutColor выводит всё без ANSI-последовательностей.
func WithoutColor() Option {
	return func(m *Menu) {
		for _, c := range []*color.Color{m.header, m.ok, m.warn, m.fail} {
			c.DisableColor()
		}
	}
}

func New(ctl Controller, in io.Reader, out io.Writer, opts ...Option) *Menu {
	m := &Menu{
		ctl:    ctl,
		in:     bufio.NewScanner(in),
		out:    out,
		header: color.New(color.FgMagenta, color.Bold),
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run крутит меню до выбора "3" на остановленном сервере.
// Если ввод закончился, работающий сервер останавливается (с сохранением
// кеша) и Run возвращает результат Stop.
func (m *Menu) Run() error {
	m.printMenu()

	for {
		m.print(nil, "enter your choice: ")

		if !m.in.Scan() {
			m.print(nil, "\n")
			if err := m.in.Err(); err != nil {
				return err
			}
			return m.stop()
		}

		choice, err := strconv.Atoi(strings.TrimSpace(m.in.Text()))
		if err != nil {
			choice = -1
		}

		switch choice {
		case 0:
			m.printMenu()
		case 1:
			m.start()
		case 2:
			m.stop()
		case 3:
			if !m.ctl.Running() {
				return nil
			}
			m.println(m.warn, "close server first (press 2)")
		default:
			m.println(m.warn, "enter a valid input")
		}
	}
}

func (m *Menu) printMenu() {
	lines := strings.SplitN(menuText, "\n", 2)
	m.println(m.header, lines[0])
	m.print(nil, lines[1]+"\n")
}

func (m *Menu) start() {
	if m.ctl.Running() {
		m.println(m.warn, "server already running")
		return
	}
	if err := m.ctl.Start(); err != nil {
		m.println(m.fail, "start failed: "+err.Error())
		return
	}
	m.println(m.ok, "server started")

	go m.watch()
}

// watch сообщает, если сервер упал сам, а не по команде "2".
func (m *Menu) watch() {
	if err := m.ctl.Wait(); err != nil {
		m.println(m.fail, "server failed: "+err.Error()+" (press 2 to clean up)")
	}
}

func (m *Menu) stop() error {
	if !m.ctl.Running() {
		return nil
	}
	if err := m.ctl.Stop(); err != nil {
		m.println(m.fail, "close failed: "+err.Error())
		return err
	}
	m.println(m.ok, "server closed")
	return nil
}

func (m *Menu) print(c *color.Color, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == nil {
		io.WriteString(m.out, text)
		return
	}
	c.Fprint(m.out, text)
}

func (m *Menu) println(c *color.Color, text string) {
	m.print(c, text+"\n")
}
