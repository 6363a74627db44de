package server

import (
	"bufio"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// RunConsole 逐行读取运维指令，只认 stop。读到 EOF 或 ctx 结束时返回。
func (s *Server) RunConsole(ctx context.Context, in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
		case "stop":
			if !s.Submit(CommandStop) {
				s.c.Log.Warn("command queue full", zap.String("command", line))
			}
		default:
			s.c.Log.Info("command not recognized", zap.String("command", line))
		}
	}
}
