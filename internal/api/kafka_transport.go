package api

import (
	"crypto/tls"
	"crypto/x509"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// CreateKafkaTransport создает transport для Kafka writer с поддержкой
// SASL/PLAIN и TLS (для managed-брокеров вроде Aiven)
func CreateKafkaTransport(username, password, caCert string) *kafka.Transport {
	transport := &kafka.Transport{}

	// Если указаны username и password, используем SASL/PLAIN
	if username != "" && password != "" {
		transport.SASL = plain.Mechanism{
			Username: username,
			Password: password,
		}
		log.Printf("🔐 Kafka: SASL/PLAIN аутентификация включена (username: %s)", username)
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false, // По умолчанию проверяем сертификат
	}

	// Если указан CA сертификат, добавляем его в pool
	if caCert != "" {
		caCertPool := x509.NewCertPool()
		if ok := caCertPool.AppendCertsFromPEM([]byte(caCert)); ok {
			tlsConfig.RootCAs = caCertPool
			log.Printf("🔒 Kafka: TLS с CA сертификатом включен")
		} else {
			log.Printf("⚠️ Kafka: не удалось распарсить CA сертификат, используем системные сертификаты")
		}
	}

	// SASL у managed-брокеров работает только поверх TLS
	if transport.SASL != nil || caCert != "" {
		if transport.SASL != nil && caCert == "" {
			tlsConfig.RootCAs = nil // Системные сертификаты
			log.Printf("🔒 Kafka: TLS включен (системные сертификаты)")
		}
		transport.TLS = tlsConfig
	}

	return transport
}

// ParseKafkaBrokers парсит строку с брокерами (может быть через запятую)
func ParseKafkaBrokers(brokers string) []string {
	if brokers == "" {
		return []string{}
	}
	brokerList := strings.Split(strings.ReplaceAll(brokers, " ", ""), ",")
	var result []string
	for _, broker := range brokerList {
		if broker != "" {
			result = append(result, broker)
		}
	}
	return result
}
