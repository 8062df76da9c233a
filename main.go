package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spooky-finn/go-binance-marketview/config"
	"github.com/spooky-finn/go-binance-marketview/domain"
	promclient "github.com/spooky-finn/go-binance-marketview/infrastructure/prometheus"
	"github.com/spooky-finn/go-binance-marketview/provider/binance"
	"github.com/spooky-finn/go-binance-marketview/server"
	"github.com/spooky-finn/go-binance-marketview/usecase"
)

func main() {
	godotenv.Load()
	conf := config.NewConfig()

	symbol, err := domain.NewMarketSymbolFromString(conf.DefaultPair)
	if err != nil {
		log.Fatalf("invalid DEFAULT_PAIR %q: %s", conf.DefaultPair, err)
	}

	feed := binance.NewConnManager(conf)
	view := usecase.NewMarketViewUseCase(conf, feed)
	view.Start()
	view.SelectPair(symbol)

	go promclient.StartPromClientServer(conf.MetricsAddr)

	srv := server.NewServer(conf, view)
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("server stopped: %s", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	view.Stop()
}
