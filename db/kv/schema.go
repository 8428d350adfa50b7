package kv

// The schema will define how to store and retrieve data in the db.
// Currently we store one bucket per record table, with big-endian
// encoded integer keys so that cursor iteration follows id order.
var (
	validatorsBucket         = []byte("validators-bucket")
	transactionsBucket       = []byte("bridge-transactions-bucket")
	attestationRecordsBucket = []byte("attestation-records-bucket")
	challengesBucket         = []byte("challenges-bucket")
	chainDataBucket          = []byte("chain-data-bucket")

	chainDataKey = []byte("chain-data")
)
