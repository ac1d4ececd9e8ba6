package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/animcompose/internal/system"
)

type stats struct {
	start    time.Time
	realized time.Time
	composed time.Time
}

func (c *Compositor) report(st stats, elements int, res Result) {
	total := st.composed.Sub(st.start)
	realize := st.realized.Sub(st.start)
	compose := st.composed.Sub(st.realized)
	fps := float64(res.Frames) / compose.Seconds()

	kv := []interface{}{
		"build", c.cfg.BuildVersion,
		"total", total.Round(time.Millisecond),
		"realize", realize.Round(time.Millisecond),
		"compose", compose.Round(time.Millisecond),
		"fps", fmt.Sprintf("%.2f", fps),
	}
	if m, err := system.MemoryUsage(); err == nil {
		kv = append(kv, "mem_used_mb", m.Used>>20, "mem_used_pct", fmt.Sprintf("%.1f", m.UsedPercent))
	}
	c.log.Info("performance report", kv...)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Elements: %d | Kind: %s | Frames: %d | Total: %.2fs | Realize: %.2fs | Compose: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		c.cfg.BuildVersion,
		elements,
		res.Kind,
		res.Frames,
		total.Seconds(),
		realize.Seconds(),
		compose.Seconds(),
		fps,
	)
	f, err := os.OpenFile(filepath.Join(c.cfg.OutputDir, "benchmark.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		c.log.Warn("Не удалось записать benchmark.log", "err", err)
		return
	}
	f.WriteString(logEntry)
	f.Close()
}
