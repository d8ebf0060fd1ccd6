package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resolvd/internal/resolver"
)

// handleConnection обслуживает одно соединение: запрос, кеш, задержка,
// при промахе резолвинг, ответ, закрытие.
func (s *Server) handleConnection(conn *net.TCPConn) {
	defer s.handlers.Done()
	defer conn.Close()

	s.metrics.HandlerStarted()
	defer s.metrics.HandlerDone()

	if s.sem != nil {
		// с Background Acquire ошибок не возвращает
		_ = s.sem.Acquire(context.Background(), 1)
		defer s.sem.Release(1)
	}

	log := s.log.With(
		zap.String("conn", uuid.NewString()),
		zap.Stringer("remote", conn.RemoteAddr()),
	)

	if s.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	domain, err := readRequest(bufio.NewReaderSize(conn, readerSize(s.maxLineLen)), s.maxLineLen)
	if err != nil {
		s.metrics.ConnectionError()
		log.Debug("bad request", zap.Error(err))
		return
	}

	ip, err := s.answer(domain)
	if err != nil {
		log.Warn("resolution failed", zap.String("domain", domain), zap.Error(err))
		if s.errorReplies {
			s.reply(conn, log, "ERR "+replyReason(err)+"\n")
		}
		return
	}

	s.reply(conn, log, ip+"\n")
	log.Debug("answered", zap.String("domain", domain), zap.String("ip", ip))
}

// answer возвращает IP для домена. Кеш читается до задержки; промах
// после задержки уходит в резолвер, одновременные промахи по одному
// домену схлопываются в один вызов.
func (s *Server) answer(domain string) (string, error) {
	ip, hit := s.cache.Lookup(domain)
	if hit {
		s.metrics.Hit()
	} else {
		s.metrics.Miss()
	}

	if s.delay > 0 {
		s.clock.Sleep(s.delay)
	}

	if hit {
		return ip, nil
	}

	v, err, _ := s.group.Do(domain, func() (any, error) {
		ip, err := s.resolver.Resolve(context.Background(), domain)
		s.metrics.Resolution(err)
		if err != nil {
			var re *resolver.ResolutionError
			if !errors.As(err, &re) {
				err = &resolver.ResolutionError{Domain: domain, Err: err}
			}
			return "", err
		}
		s.cache.Insert(domain, ip)
		return ip, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Server) reply(conn net.Conn, log *zap.Logger, msg string) {
	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := conn.Write([]byte(msg)); err != nil {
		s.metrics.ConnectionError()
		log.Debug("write failed", zap.Error(&ConnectionError{Op: "write", Err: err}))
	}
}

// replyReason - причина для строки ERR, без переводов строки.
func replyReason(err error) string {
	var re *resolver.ResolutionError
	if errors.As(err, &re) {
		err = re.Err
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}
