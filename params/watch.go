package params

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/anyswap/CrossChain-Settlement/log"
)

// WatchConfig reload config when the config file is written, until ctx is done.
// The parent directory is watched so editors replacing the file are noticed.
func WatchConfig(ctx context.Context, configFile string, onReload func(*SettleConfig)) error {
	configFile, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = watcher.Add(filepath.Dir(configFile)); err != nil {
		_ = watcher.Close()
		return err
	}
	log.Info("start watching config file", "file", configFile)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != configFile {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := ReloadConfig(configFile); err != nil {
					log.Warn("reload config failed, keep the current one", "file", configFile, "err", err)
					continue
				}
				log.Info("reload config success", "file", configFile)
				if onReload != nil {
					onReload(GetConfig())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watch config file error", "err", err)
			}
		}
	}()
	return nil
}
