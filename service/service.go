// Package service runs decode, codec and encode as one step for the HTTP
// handlers and the CLI.
package service

import (
	"time"

	"go.uber.org/zap"

	"picstego/bitcodec"
	"picstego/imageio"
	"picstego/metrics"
	"picstego/models"
	"picstego/stego"
)

type Service struct {
	decoder *imageio.ImageDecoder
	metrics *metrics.Metrics
	logger  *zap.Logger
	minPSNR float64
}

// New wires a service. m may be nil.
func New(decoder *imageio.ImageDecoder, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{decoder: decoder, metrics: m, logger: logger}
}

// WithMinPSNR sets the quality floor below which an embed is logged at warn
// level. Zero turns the check off.
func (s *Service) WithMinPSNR(db float64) *Service {
	s.minPSNR = db
	return s
}

func (s *Service) Decoder() *imageio.ImageDecoder {
	return s.decoder
}

// Embed decodes data, hides message in it and encodes the result.
func (s *Service) Embed(data []byte, filename, message string, format imageio.Format) (*models.EmbedResult, error) {
	cover, meta, err := s.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("decoded cover",
		zap.String("format", meta.Format),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
	)
	return s.EmbedBuffer(cover, filename, message, format)
}

// EmbedBuffer hides message in cover, which it takes ownership of.
func (s *Service) EmbedBuffer(cover *stego.PixelBuffer, filename, message string, format imageio.Format) (*models.EmbedResult, error) {
	original := cover.Clone()

	started := time.Now()
	out, err := stego.Embed(cover, message)
	s.metrics.ObserveOperation("embed", started, err)
	if err != nil {
		return nil, err
	}

	frameBits := bitcodec.HeaderBits + len(bitcodec.TextToBits(message))
	s.metrics.ObservePayload(frameBits - bitcodec.HeaderBits)

	encoded, err := imageio.EncodeBytes(out, format)
	if err != nil {
		return nil, err
	}

	result := &models.EmbedResult{
		OutputName:   imageio.OutputName(filename, format),
		ContentType:  format.ContentType(),
		Data:         encoded,
		CapacityBits: stego.Capacity(out),
		FrameBits:    frameBits,
		PSNR:         imageio.CalculatePSNR(original, out),
	}
	if !imageio.ValidatePSNR(result.PSNR, s.minPSNR) {
		s.logger.Warn("stego image below quality floor",
			zap.String("psnr", imageio.FormatPSNR(result.PSNR)),
			zap.Float64("min_psnr", s.minPSNR),
		)
	}
	s.logger.Info("message embedded",
		zap.Int("frame_bits", result.FrameBits),
		zap.Int("capacity_bits", result.CapacityBits),
		zap.String("psnr", imageio.FormatPSNR(result.PSNR)),
	)
	return result, nil
}

// Extract decodes data and reads the hidden message.
func (s *Service) Extract(data []byte) (string, *imageio.ImageMetadata, error) {
	buf, meta, err := s.decoder.Decode(data)
	if err != nil {
		return "", meta, err
	}
	msg, err := s.ExtractBuffer(buf)
	return msg, meta, err
}

func (s *Service) ExtractBuffer(buf *stego.PixelBuffer) (string, error) {
	started := time.Now()
	msg, err := stego.Extract(buf)
	s.metrics.ObserveOperation("extract", started, err)
	if err != nil {
		return "", err
	}
	s.logger.Info("message extracted", zap.Int("bytes", len(msg)))
	return msg, nil
}

// Capacity reports the LSB budget of data.
func (s *Service) Capacity(data []byte) (*models.CapacityResponse, error) {
	buf, meta, err := s.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	return &models.CapacityResponse{
		Success:         true,
		Format:          meta.Format,
		Width:           buf.Width,
		Height:          buf.Height,
		CapacityBits:    stego.Capacity(buf),
		MaxMessageBytes: stego.MaxMessageBytes(buf),
	}, nil
}
