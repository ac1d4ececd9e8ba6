package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ivlev/animcompose/internal/config"
	"github.com/ivlev/animcompose/internal/engine"
	"github.com/ivlev/animcompose/internal/job"
	"github.com/ivlev/animcompose/internal/output"
	"github.com/ivlev/animcompose/internal/source"
	"github.com/ivlev/animcompose/internal/system"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	for _, d := range []string{job.DefaultDir, "output"} {
		os.MkdirAll(d, 0755)
	}

	jobPtr := flag.String("job", "", "Путь к YAML-заданию (по умолчанию: самый свежий файл в input/jobs/)")
	framesPtr := flag.String("frames", "", "Папка с кадрами: собрать анимацию из изображений вместо задания")
	delayPtr := flag.Int("delay", 100, "Задержка кадра для -frames (мс)")
	outputPtr := flag.String("output", "", "Путь к результату без расширения (если пусто, генерируется в output/)")
	widthPtr := flag.Int("width", config.DefaultOutputWidth, "Ширина результата")
	canvasWidthPtr := flag.Float64("canvas-width", 0, "Ширина холста редактора (по умолчанию: из задания)")
	speedPtr := flag.Float64("speed", config.DefaultSpeedRatio, "Множитель скорости анимации")
	qualityPtr := flag.Int("quality", config.DefaultQuality, "Качество 1-100")
	stillPtr := flag.String("still", "png", "Формат статичного результата: png, jpeg, webp")
	animatedPtr := flag.String("animated", "gif", "Формат анимации: gif, webp, apng, mp4")
	dpiPtr := flag.Int("dpi", config.DefaultDPI, "DPI для страниц PDF")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	debugPtr := flag.Bool("debug", false, "Подробный лог")

	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "animcompose",
	})
	if *debugPtr {
		logger.SetLevel(log.DebugLevel)
	}
	log.SetDefault(logger)

	j, jobName, root, err := loadJob(*jobPtr, *framesPtr, *delayPtr)
	if err != nil {
		logger.Fatal("Ошибка загрузки задания", "err", err)
	}

	cfg := j.Apply(config.Default())
	cfg.BuildVersion = Version
	cfg.ShowStats = *statsPtr
	cfg.OutputDir = "output"
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.OutputWidth = *widthPtr
		case "canvas-width":
			cfg.CanvasWidth = *canvasWidthPtr
		case "speed":
			cfg.SpeedRatio = *speedPtr
		case "quality":
			cfg.Quality = *qualityPtr
		case "still":
			cfg.StillFormat = *stillPtr
		case "animated":
			cfg.AnimatedFormat = *animatedPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		}
	})

	base := *outputPtr
	if base == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		base = filepath.Join("output", fmt.Sprintf("%s_%s", jobName, timestamp))
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
		cfg.OutputDir = filepath.Dir(base)
	}

	comp, err := engine.NewCompositor(cfg, engine.Options{
		Loader: source.NewFileLoader(root),
		Logger: logger,
		OnLoading: func(f float64) {
			logger.Debug("loading", "progress", fmt.Sprintf("%.0f%%", f*100))
		},
		OnCompositing: func(f float64) {
			logger.Debug("compositing", "progress", fmt.Sprintf("%.0f%%", f*100))
		},
	})
	if err != nil {
		logger.Fatal("Ошибка конфигурации", "err", err)
	}

	sink, err := output.NewFileSink(base)
	if err != nil {
		logger.Fatal("Не удалось создать файл результата", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolved := comp.Config()
	logger.Info("--- [ANIMCOMPOSE] ---", "job", jobName, "elements", len(j.Elements),
		"width", resolved.OutputWidth, "ratio", fmt.Sprintf("%.3f", resolved.ResizeRatio()),
		"speed", resolved.SpeedRatio, "still", resolved.StillFormat, "animated", resolved.AnimatedFormat)
	res, err := comp.Start(ctx, j.Descriptors(), sink).Wait()
	if err != nil {
		sink.Abort()
		if engine.IsCanceled(err) {
			logger.Warn("Прервано пользователем")
			os.Exit(130)
		}
		logger.Fatal("Ошибка композиции", "err", err)
	}

	final, err := sink.Commit(res.Extension)
	if err != nil {
		logger.Fatal("Не удалось сохранить результат", "err", err)
	}
	logger.Info("[+++] Успех!", "kind", res.Kind, "frames", res.Frames, "output", final)
}

// loadJob resolves the job to run: an explicit file, a frames directory, or the newest job
// in the default directory. root is the directory relative sources are resolved against.
func loadJob(path, framesDir string, delay int) (j *job.Job, name, root string, err error) {
	if framesDir != "" {
		paths, err := source.ListImages(framesDir)
		if err != nil {
			return nil, "", "", err
		}
		if len(paths) == 0 {
			return nil, "", "", fmt.Errorf("в папке %s нет изображений", framesDir)
		}
		data, err := os.ReadFile(paths[0])
		if err != nil {
			return nil, "", "", err
		}
		w, h, err := source.DecodeSize(data, 0, config.DefaultDPI)
		if err != nil {
			return nil, "", "", fmt.Errorf("%s: %w", paths[0], err)
		}
		// абсолютные пути: сохранённое задание читается относительно input/jobs
		for i, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				paths[i] = abs
			}
		}
		j = job.FromFrames(paths, delay, float64(w), float64(h))
		// сохраняем задание, чтобы его можно было отредактировать и запустить через -job
		saved := job.GeneratePath(job.DefaultDir)
		if err := job.Write(j, saved); err != nil {
			log.Warn("Не удалось сохранить задание", "path", saved, "err", err)
		} else {
			log.Info("Задание сохранено", "job", saved)
		}
		return j, cleanName(framesDir), "", nil
	}

	if path == "" {
		latest, err := job.FindLatest(job.DefaultDir)
		if err != nil {
			return nil, "", "", fmt.Errorf("%w. Положите задание в %s", err, job.DefaultDir)
		}
		path = latest
		log.Info("Выбран файл", "job", path)
	}
	j, err = job.Read(path)
	if err != nil {
		return nil, "", "", err
	}
	return j, cleanName(path), filepath.Dir(path), nil
}

func cleanName(path string) string {
	base := filepath.Base(path)
	nameOnly := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(nameOnly, " ", "_")
}
