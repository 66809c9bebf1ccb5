package handler

import jsoniter "github.com/json-iterator/go"

// Serialização JSON compatível com a biblioteca padrão, porém mais rápida
var json = jsoniter.ConfigCompatibleWithStandardLibrary
