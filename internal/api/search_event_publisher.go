package api

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// SearchEvent событие записанного поиска для внешней аналитики
type SearchEvent struct {
	SessionKey  string    `json:"session_key"`
	CityID      uint      `json:"city_id"`
	CityName    string    `json:"city_name"`
	Country     string    `json:"country"`
	SearchCount uint      `json:"search_count"`
	SearchedAt  time.Time `json:"searched_at"`
}

// SearchEventPublisher отправляет события поиска в Kafka
// Отправка fire-and-forget: ошибка логируется и никогда не влияет на ответ API
type SearchEventPublisher struct {
	writer *kafka.Writer
}

// NewSearchEventPublisher создает producer событий поиска
// Возвращает nil, если брокеры не настроены — вызывающий код это учитывает
func NewSearchEventPublisher(brokers, topic, username, password, caCert string) *SearchEventPublisher {
	brokerList := ParseKafkaBrokers(brokers)
	if len(brokerList) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:      kafka.TCP(brokerList...),
		Topic:     topic,
		Balancer:  &kafka.LeastBytes{},
		Async:     true, // Асинхронная отправка, ответ API не ждет Kafka
		Transport: CreateKafkaTransport(username, password, caCert),
	}

	log.Printf("✅ Kafka producer событий поиска подключен к %s (топик: %s)", brokers, topic)
	return &SearchEventPublisher{writer: writer}
}

// Publish отправляет событие поиска
func (p *SearchEventPublisher) Publish(event SearchEvent) {
	if p == nil || p.writer == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Kafka: ошибка сериализации события поиска: %v", err)
		return
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.SessionKey), // Ключ = сессия, события одной сессии в одной партиции
		Value: data,
	})
	if err != nil {
		// Топик может создаться автоматически при первом обращении
		if !strings.Contains(err.Error(), "Unknown Topic Or Partition") {
			log.Printf("⚠️ Kafka: ошибка отправки события поиска: %v", err)
		}
	}
}

// Close закрывает producer
func (p *SearchEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
