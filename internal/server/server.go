package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// ErrServerRunning - повторный Start до завершения предыдущего запуска.
var ErrServerRunning = errors.New("server already running")

// ListenerBindError - не удалось занять адрес.
type ListenerBindError struct {
	Addr string
	Err  error
}

func (e *ListenerBindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *ListenerBindError) Unwrap() error { return e.Err }

// Start занимает адрес и запускает цикл accept в отдельной горутине.
// После Shutdown сервер можно запустить снова.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
		default:
			return ErrServerRunning
		}
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", s.addr)
	if err != nil {
		return &ListenerBindError{Addr: s.addr, Err: err}
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return &ListenerBindError{Addr: s.addr, Err: err}
	}

	s.listener = ln
	s.done = make(chan struct{})
	s.serveErr = nil
	s.running.Store(true)

	s.log.Info("listening", zap.Stringer("addr", ln.Addr()))

	go s.serve(ln, s.done)
	return nil
}

func (s *Server) serve(ln *net.TCPListener, done chan struct{}) {
	err := s.acceptLoop(ln)
	s.running.Store(false)
	ln.Close()

	if err != nil {
		s.log.Error("accept loop failed", zap.Error(err))
	}

	// соединения не прерываются, ждём каждое до конца
	s.handlers.Wait()

	s.mu.Lock()
	s.serveErr = err
	s.mu.Unlock()
	close(done)
}

func (s *Server) acceptLoop(ln *net.TCPListener) error {
	for s.running.Load() {
		if err := ln.SetDeadline(time.Now().Add(s.acceptPoll)); err != nil {
			return err
		}

		conn, err := ln.AcceptTCP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.metrics.Rejected()
			s.log.Debug("connection rejected by rate limit", zap.Stringer("remote", conn.RemoteAddr()))
			conn.Close()
			continue
		}

		s.handlers.Add(1)
		go s.handleConnection(conn)
	}
	return nil
}

// Shutdown снимает флаг работы и ждёт, пока цикл accept заметит это
// на ближайшем опросе и все начатые соединения будут обслужены.
func (s *Server) Shutdown() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return
	}
	s.running.Store(false)
	<-done
}

// Wait блокируется до остановки текущего запуска и возвращает фатальную
// ошибку цикла accept, если она была.
func (s *Server) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveErr
}

// Running сообщает, принимает ли сервер соединения.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Addr - фактический адрес последнего запуска (полезно при порте 0).
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
