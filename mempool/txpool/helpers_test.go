package txpool_test

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var chainID = big.NewInt(1337)

func mustKey() *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA("fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19")
	if err != nil {
		panic(err)
	}
	return key
}

func mustOtherKey() *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA("59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690")
	if err != nil {
		panic(err)
	}
	return key
}

func signer() ethtypes.Signer {
	return ethtypes.NewCancunSigner(chainID)
}

func mustSign(txdata ethtypes.TxData) *ethtypes.Transaction {
	tx, err := ethtypes.SignNewTx(mustKey(), signer(), txdata)
	if err != nil {
		panic(err)
	}
	return tx
}

func legacyTx(nonce uint64, gasPrice int64, gasLimit uint64) *ethtypes.Transaction {
	to := common.Address{}
	return mustSign(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(gasPrice),
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
	})
}

func legacyTxFrom(key *ecdsa.PrivateKey, nonce uint64, gasPrice int64, gasLimit uint64) *ethtypes.Transaction {
	to := common.Address{}
	tx, err := ethtypes.SignNewTx(key, signer(), &ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(gasPrice),
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
	})
	if err != nil {
		panic(err)
	}
	return tx
}

func dynamicFeeTx(nonce uint64, tip, feeCap int64, gasLimit uint64) *ethtypes.Transaction {
	to := common.Address{}
	return mustSign(&ethtypes.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(tip),
		GasFeeCap: big.NewInt(feeCap),
		Gas:       gasLimit,
		To:        &to,
		Value:     big.NewInt(0),
	})
}

func blobTx(nonce uint64, tip, feeCap, blobFeeCap int64, gasLimit uint64, hashes int) *ethtypes.Transaction {
	to := common.Address{}
	blobHashes := make([]common.Hash, hashes)
	for i := range blobHashes {
		blobHashes[i] = common.BigToHash(big.NewInt(int64(i) + 1))
	}
	return mustSign(&ethtypes.BlobTx{
		ChainID:    uint256.MustFromBig(chainID),
		Nonce:      nonce,
		GasTipCap:  uint256.NewInt(uint64(tip)),
		GasFeeCap:  uint256.NewInt(uint64(feeCap)),
		Gas:        gasLimit,
		To:         to,
		Value:      uint256.NewInt(0),
		BlobFeeCap: uint256.NewInt(uint64(blobFeeCap)),
		BlobHashes: blobHashes,
	})
}
