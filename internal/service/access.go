package service

import "github.com/nurpe/payments-service/internal/model"

// CanAccessContract reports whether the caller is the client or the
// contractor of the contract.
func CanAccessContract(callerID int64, contract model.Contract) bool {
	return contract.HasParty(callerID)
}

// CanPayJob reports whether the caller may settle the job: only the client
// side of the contract pays.
func CanPayJob(callerID int64, job model.PayableJob) bool {
	return job.ClientID == callerID
}
