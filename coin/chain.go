package coin

import (
	"context"

	"github.com/qchaucoin/ledger/internal/ledger"
	"github.com/qchaucoin/ledger/internal/model"

	"go.uber.org/zap"
)

// GetChain returns a snapshot of every block.
func (s *Service) GetChain(_ context.Context) *model.ChainResponse {
	blocks := s.ledger.Chain()
	return &model.ChainResponse{
		Height: uint64(len(blocks)),
		Blocks: blocks,
	}
}

// VerifyChain recomputes every block hash and link of the current chain.
func (s *Service) VerifyChain(_ context.Context) *model.ChainVerifyResponse {
	blocks := s.ledger.Chain()
	resp := &model.ChainVerifyResponse{
		Valid:  true,
		Height: uint64(len(blocks)),
	}
	if len(blocks) > 0 {
		resp.Head = blocks[len(blocks)-1].Hash
	}
	if err := ledger.VerifyChain(blocks); err != nil {
		s.logger.Error("chain verification failed", zap.Error(err))
		resp.Valid = false
		resp.Error = err.Error()
	}
	return resp
}
