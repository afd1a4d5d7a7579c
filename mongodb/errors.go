package mongodb

import (
	"errors"

	rpcjson "github.com/gorilla/rpc/v2/json2"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anyswap/CrossChain-Settlement/types"
)

func newError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

func mgoError(err error) error {
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.ErrTxNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return types.ErrTxIsDup
		}
		return newError(-32001, "mgoError: "+err.Error())
	}
	return nil
}
