package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/rpc"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/service"
)

const ServiceName = "lynkskill.transfer.v1.TransferService"

// TransferServiceServer is the server API for TransferService.
type TransferServiceServer interface {
	InitiateTransfer(context.Context, *InitiateTransferRequest) (*InitiateTransferResponse, error)
	ConfirmFirst(context.Context, *ConfirmFirstRequest) (*TransferResponse, error)
	ConfirmFinal(context.Context, *ConfirmFinalRequest) (*TransferResponse, error)
	CancelTransfer(context.Context, *CancelTransferRequest) (*TransferResponse, error)
	GetPendingTransfer(context.Context, *GetPendingTransferRequest) (*TransferResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransferServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "InitiateTransfer", TransferServiceServer.InitiateTransfer),
		rpc.Unary(ServiceName, "ConfirmFirst", TransferServiceServer.ConfirmFirst),
		rpc.Unary(ServiceName, "ConfirmFinal", TransferServiceServer.ConfirmFinal),
		rpc.Unary(ServiceName, "CancelTransfer", TransferServiceServer.CancelTransfer),
		rpc.Unary(ServiceName, "GetPendingTransfer", TransferServiceServer.GetPendingTransfer),
	},
	Metadata: "transfer/v1/transfer.json",
}

// Server implements TransferService.
type Server struct {
	svc *service.Service
}

func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

var _ TransferServiceServer = (*Server)(nil)

// InitiateTransfer opens a transfer to another active member. Owner only.
func (s *Server) InitiateTransfer(ctx context.Context, req *InitiateTransferRequest) (*InitiateTransferResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Initiate(ctx, caller, req.TargetMembershipID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &InitiateTransferResponse{Request: requestFromDomain(res.Request), Code: res.Code}, nil
}

// ConfirmFirst checks the typed name or email of the new owner.
func (s *Server) ConfirmFirst(ctx context.Context, req *ConfirmFirstRequest) (*TransferResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return transferResponse(s.svc.ConfirmFirst(ctx, caller, req.Typed))
}

// ConfirmFinal checks the code and phrase and completes the transfer.
func (s *Server) ConfirmFinal(ctx context.Context, req *ConfirmFinalRequest) (*TransferResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return transferResponse(s.svc.ConfirmFinal(ctx, caller, req.Code, req.Phrase))
}

func (s *Server) CancelTransfer(ctx context.Context, _ *CancelTransferRequest) (*TransferResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return transferResponse(s.svc.Cancel(ctx, caller))
}

// GetPendingTransfer returns the live request, or an empty response when there is none.
func (s *Server) GetPendingTransfer(ctx context.Context, _ *GetPendingTransferRequest) (*TransferResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return transferResponse(s.svc.GetPending(ctx, caller))
}

func transferResponse(r *domain.Request, err error) (*TransferResponse, error) {
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &TransferResponse{Request: requestFromDomain(r)}, nil
}
